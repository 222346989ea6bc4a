package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/assetdesk/internal/assetclient"
	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/config"
	"github.com/muurk/assetdesk/internal/ui"
)

var assetsYes bool

func init() {
	assetsListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search text (substring or close match)")
	assetsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	assetsListCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Page size (server default when 0)")
	assetsDeleteCmd.Flags().BoolVarP(&assetsYes, "yes", "y", false, "Delete without asking")
	addAssetFieldFlags(assetsAddCmd)
	addAssetFieldFlags(assetsEditCmd)

	assetsCmd.AddCommand(assetsListCmd)
	assetsCmd.AddCommand(assetsAddCmd)
	assetsCmd.AddCommand(assetsEditCmd)
	assetsCmd.AddCommand(assetsDeleteCmd)
	rootCmd.AddCommand(assetsCmd)
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Browse the asset register",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	Example: `  # First page of the default profile's register
  assetdesk assets list

  # Search for laptops, 50 per page
  assetdesk assets list -q laptop --page-size 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := assetsClient()
		if err != nil {
			return err
		}
		page, err := client.ListAssets(cmd.Context(), assetclient.ListOptions{
			Query:    listQuery,
			Page:     listPage,
			PageSize: listPageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to list assets: %w", err)
		}
		fmt.Println(ui.RenderAssetTable(page))
		return nil
	},
}

// assetFields maps the add/edit flags onto the entry form fields.
var assetFields = []struct {
	flag, field, usage string
}{
	{"serial", assets.FieldSerialNumber, "Serial number (required)"},
	{"name", assets.FieldName, "Asset name (required)"},
	{"category", assets.FieldCategory, "Device type (required)"},
	{"brand", assets.FieldBrand, "Brand (required)"},
	{"department", assets.FieldDepartment, "Owning department (required)"},
	{"location", assets.FieldLocation, "Location (required)"},
	{"supplier", assets.FieldSupplier, "Supplier (required)"},
	{"recipient", assets.FieldRecipient, "Recipient (required)"},
	{"recipient-department", assets.FieldRecipientDepartment, "Recipient's department (required)"},
	{"application-date", assets.FieldApplicationDate, "Application date, YYYY-MM-DD"},
	{"order-date", assets.FieldOrderDate, "Order date, YYYY-MM-DD"},
	{"created-at", assets.FieldCreatedAt, "Created date, YYYY-MM-DD (default: today)"},
	{"specification", assets.FieldSpecification, "Specification"},
	{"asset-code", assets.FieldAssetCode, "Asset code"},
	{"remarks", assets.FieldRemarks, "Remarks"},
}

func addAssetFieldFlags(cmd *cobra.Command) {
	for _, f := range assetFields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// changedAssetFields returns the entry form fields the user passed a flag
// for. An empty flag value clears the field.
func changedAssetFields(cmd *cobra.Command) url.Values {
	changes := url.Values{}
	for _, f := range assetFields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		changes.Set(f.field, v)
	}
	return changes
}

var assetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an asset",
	Example: `  assetdesk assets add --serial SN-1001 --name "ThinkPad X1" --category Laptop \
    --brand Lenovo --department Engineering --location Shanghai --supplier JD \
    --recipient "Wang Wei" --recipient-department Engineering`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := assets.Normalize(assets.Asset{}.With(changedAssetFields(cmd)), time.Now())
		if err := assets.Validate(a); err != nil {
			return fmt.Errorf("invalid asset: %w", err)
		}
		client, err := assetsClient()
		if err != nil {
			return err
		}

		res, err := client.CreateAsset(cmd.Context(), a)
		if err != nil {
			return fmt.Errorf("failed to add asset: %w", err)
		}
		fmt.Printf("Added asset %d\n", res.ID)
		return nil
	},
}

var assetsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of an asset",
	Long: `Change fields of an asset.

Only the fields given as flags change; pass an empty value to clear an
optional field.`,
	Example: `  # Hand a laptop over to someone else
  assetdesk assets edit 12 --recipient "Li Na" --recipient-department Finance`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 1 {
			return fmt.Errorf("invalid asset ID %q", args[0])
		}
		changes := changedAssetFields(cmd)
		if len(changes) == 0 {
			return errors.New("nothing to change: pass at least one field flag (see --help)")
		}
		client, err := assetsClient()
		if err != nil {
			return err
		}

		current, err := client.GetAsset(cmd.Context(), id)
		if err != nil {
			if assetclient.IsNotFound(err) {
				return fmt.Errorf("asset %d not found", id)
			}
			return err
		}
		updated := current.With(changes)
		if err := assets.Validate(updated); err != nil {
			return fmt.Errorf("invalid asset: %w", err)
		}
		if _, err := client.UpdateAsset(cmd.Context(), updated); err != nil {
			if assetclient.IsNotFound(err) {
				return fmt.Errorf("asset %d not found", id)
			}
			return fmt.Errorf("failed to update asset: %w", err)
		}
		fmt.Printf("Updated asset %d\n", id)
		return nil
	},
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 1 {
			return fmt.Errorf("invalid asset ID %q", args[0])
		}
		client, err := assetsClient()
		if err != nil {
			return err
		}
		if !assetsYes && !ui.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete asset %d on %s?", id, client.BaseURL)) {
			fmt.Println("Unchanged.")
			return nil
		}

		if _, err := client.DeleteAsset(cmd.Context(), id); err != nil {
			if assetclient.IsNotFound(err) {
				return fmt.Errorf("asset %d not found", id)
			}
			return err
		}
		fmt.Printf("Deleted asset %d\n", id)
		return nil
	},
}

func assetsClient() (*assetclient.Client, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}
	t, err := resolveTarget(reg)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("no server configured: pass --server, or run 'assetdesk discover --save'")
	}
	return assetclient.NewClient(t.baseURL, reg.RequestTimeout())
}

// Cart commands: add, inc, dec, list.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basket/pkg/basket"
	"github.com/mesh-intelligence/basket/pkg/types"
)

var errEmptyID = errors.New("product id must not be empty")

// errNotInCart is returned by inc and dec for an ID the cart does not hold.
type errNotInCart string

func (e errNotInCart) Error() string { return fmt.Sprintf("no item %q in cart", string(e)) }

// openCart loads configuration, opens the configured backend, and loads the
// cart. The caller must Close the returned cart.
func (a *app) openCart(ctx context.Context) (types.Cart, types.Config, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, cfg, err
	}

	entry := a.log.WithField("backend", cfg.Backend)
	c, err := basket.Open(ctx, cfg, basket.WithLogger(entry))
	if err != nil {
		return nil, cfg, system("%w", err)
	}
	if err := c.Load(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, cfg, system("load cart: %w", err)
	}
	return c, cfg, nil
}

// withCart opens the cart, runs fn, and closes the cart, flushing writes.
func (a *app) withCart(ctx context.Context, fn func(types.Cart) error) error {
	c, _, err := a.openCart(ctx)
	if err != nil {
		return err
	}
	fnErr := fn(c)
	if err := c.Close(ctx); err != nil && fnErr == nil {
		return system("save cart: %w", err)
	}
	return fnErr
}

func newAddCmd(a *app) *cobra.Command {
	var (
		p     types.Product
		price string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one unit of a product to the cart",
		Long: `Add puts one unit of a product in the cart. If the product is already in
the cart its quantity goes up by one and it moves to the end of the list.

Example:
  basket add --id sku-1 --title "Coffee mug" --price 7.50
  basket add --id sku-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.ID == "" {
				return errEmptyID
			}
			if price != "" {
				d, err := decimal.NewFromString(price)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", price, err)
				}
				p.Price = d
			}
			return a.withCart(cmd.Context(), func(c types.Cart) error {
				c.AddToCart(p)
				return a.printItem(cmd.OutOrStdout(), c.Products(), p.ID)
			})
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "product id (required)")
	cmd.Flags().StringVar(&p.Title, "title", "", "display name")
	cmd.Flags().StringVar(&p.ImageURL, "image-url", "", "display image reference")
	cmd.Flags().StringVar(&price, "price", "", "unit price")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newIncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inc <id>",
		Short: "Add one unit of an item already in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withCart(cmd.Context(), func(c types.Cart) error {
				if !types.Contains(c.Products(), id) {
					return errNotInCart(id)
				}
				c.Increment(id)
				return a.printItem(cmd.OutOrStdout(), c.Products(), id)
			})
		},
	}
}

func newDecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dec <id>",
		Short: "Remove one unit of an item, dropping it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withCart(cmd.Context(), func(c types.Cart) error {
				if !types.Contains(c.Products(), id) {
					return errNotInCart(id)
				}
				c.Decrement(id)
				items := c.Products()
				if !types.Contains(items, id) {
					if a.flags.jsonMode {
						return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "removed": true})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
					return nil
				}
				return a.printItem(cmd.OutOrStdout(), items, id)
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the items in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCart(cmd.Context(), func(c types.Cart) error {
				items := c.Products()
				a.log.WithFields(logrus.Fields{"items": len(items)}).Debug("listing cart")
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				return printTable(cmd.OutOrStdout(), items)
			})
		},
	}
}

// printItem writes the entry with the given ID from items.
func (a *app) printItem(w io.Writer, items []types.LineItem, id string) error {
	for _, it := range items {
		if it.ID != id {
			continue
		}
		if a.flags.jsonMode {
			return writeJSON(w, it)
		}
		fmt.Fprintf(w, "%s x%d\n", it.ID, it.Quantity)
		return nil
	}
	return errNotInCart(id)
}

func printTable(w io.Writer, items []types.LineItem) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", it.ID, it.Title, it.Price.StringFixed(2), it.Quantity)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

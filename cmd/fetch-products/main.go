// Command fetch-products runs a one-shot catalog fetch against the configured
// shop and prints the result, for trying out credentials without starting the
// server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	shopifyadapter "github.com/evalyhq/shoplens/internal/adapter/driven/shopify"
	"github.com/evalyhq/shoplens/internal/config"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	limit := flag.Int("limit", driven.MaxFetchLimit, "maximum number of products to fetch")
	asJSON := flag.Bool("json", false, "print products as JSON instead of a table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasShopCredentials() {
		return fmt.Errorf("SHOPLENS_SHOP_DOMAIN and SHOPLENS_ACCESS_TOKEN must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := shopifyadapter.NewClient(cfg.ShopDomain, cfg.AccessToken, cfg.APIVersion, cfg.RateLimit)

	info, err := client.FetchShopInfo(ctx)
	if err != nil {
		return fmt.Errorf("connect to shop: %w", err)
	}
	slog.Info("connected", "shop", info.Name, "domain", client.ShopDomain(), "currency", info.Currency)

	products, err := client.FetchProducts(ctx, *limit)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tSKU\tPRICE\tSTOCK\tVARIANTS")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			p.ID, p.Title, p.Status, p.SKU, p.Price.StringFixed(2), p.InventoryQuantity, p.VariantCount)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d products\n", len(products))
	return nil
}

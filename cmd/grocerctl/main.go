package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"grocerly/internal/cache"
	"grocerly/internal/config"
	"grocerly/internal/domain"
	applog "grocerly/internal/log"
	"grocerly/internal/repos"
	"grocerly/internal/services"
)

const usage = "expected 'advance' or 'add-product' subcommand"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	advanceCmd := flag.NewFlagSet("advance", flag.ContinueOnError)
	orderID := advanceCmd.Int64("order", 0, "order id")
	status := advanceCmd.String("status", "", "next status: preparing, out_for_delivery or delivered")

	addCmd := flag.NewFlagSet("add-product", flag.ContinueOnError)
	name := addCmd.String("name", "", "product name")
	category := addCmd.String("category", "", "category slug, e.g. dairy")
	quantity := addCmd.String("quantity", "", `display quantity, e.g. "500 ml"`)
	price := addCmd.String("price", "", "unit price")
	images := addCmd.String("images", "", "comma separated filenames already in UPLOADS_DIR/home_page_products")
	details := addCmd.String("details", "", "free text")

	cfg := config.Load()
	applog.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "advance":
		if err := advanceCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *orderID < 1 || *status == "" {
			advanceCmd.PrintDefaults()
			return errors.New("order and status are required")
		}
		db, err := repos.OpenDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		svc := services.NewOrderService(repos.NewOrderRepo(db), repos.NewUserRepo(db), cfg.CancellationFee)
		o, err := svc.Advance(ctx, *orderID, domain.OrderStatus(strings.TrimSpace(*status)))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "order %s (%d) is now %s\n", o.OrderNumber, o.ID, o.Status)

	case "add-product":
		if err := addCmd.Parse(args[1:]); err != nil {
			return err
		}
		db, err := repos.OpenDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		c := cache.New(cfg.Redis)
		defer c.Close()

		var files []string
		for _, f := range strings.Split(*images, ",") {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
		svc := services.NewCatalogService(repos.NewProductRepo(db), c)
		p, err := svc.AddProduct(ctx, services.NewProduct{
			Name:     *name,
			Category: *category,
			Quantity: *quantity,
			Price:    *price,
			Images:   files,
			Details:  *details,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "product %d %q added to %s\n", p.ID, p.Name, p.Category)

	default:
		return errors.New(usage)
	}
	return nil
}

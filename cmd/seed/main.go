// Package main provides a CLI tool that prepares a database and mints
// development access tokens.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/app"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/auth"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/pkg/logger"
)

func main() {
	if err := app.LoadDotEnv(".env"); err != nil {
		fmt.Printf("failed to read .env: %v\n", err)
		os.Exit(1)
	}
	pharmacyFlag := flag.String("pharmacy", os.Getenv("SEED_PHARMACY_ID"), "pharmacy id (random when empty)")
	actorFlag := flag.String("actor", os.Getenv("SEED_ACTOR_ID"), "actor id (random when empty)")
	rolesFlag := flag.String("roles", "admin,pharmacist", "comma separated roles")
	demo := flag.Bool("demo", os.Getenv("SEED_DEMO_DATA") == "true", "record a demo purchase")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)

	actor, err := seedActor(*actorFlag, *pharmacyFlag, *rolesFlag)
	if err != nil {
		log.Fatalw("invalid seed identity", "error", err)
	}

	backend, err := app.OpenBackend(ctx, cfg, app.OpenOptions{Migrate: true})
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer backend.Close()
	log.Infow("schema ready", "storage", backend.Kind)

	if *demo {
		if err := seedDemoData(ctx, backend, actor); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: auth.DefaultJWTConfig(cfg.JWTSecret).AccessTokenTTL,
	})
	if err != nil {
		log.Fatalw("failed to create jwt service", "error", err)
	}
	token, expiresAt, err := jwtService.GenerateAccessToken(actor)
	if err != nil {
		log.Fatalw("failed to mint token", "error", err)
	}

	log.Infow("seeding completed successfully",
		"pharmacy_id", actor.PharmacyID,
		"actor_id", actor.ActorID,
		"roles", actor.Roles,
		"expires_at", expiresAt,
	)
	fmt.Println(token)
}

func seedActor(actorID, pharmacyID, roles string) (appctx.Actor, error) {
	actor := appctx.Actor{ActorID: id.New(), PharmacyID: id.New()}

	if actorID != "" {
		parsed, err := id.ParseField("actor", actorID)
		if err != nil {
			return actor, err
		}
		actor.ActorID = parsed
	}
	if pharmacyID != "" {
		parsed, err := id.ParseField("pharmacy", pharmacyID)
		if err != nil {
			return actor, err
		}
		actor.PharmacyID = parsed
	}
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			actor.Roles = append(actor.Roles, r)
		}
	}
	return actor, nil
}

// seedDemoData records one purchase unless the pharmacy already has stock.
func seedDemoData(ctx context.Context, backend *app.Backend, actor appctx.Actor) error {
	existing, err := backend.Services.Inventory.List(ctx, actor.PharmacyID, domain.ListFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("check inventory: %w", err)
	}
	if existing.TotalCount > 0 {
		logger.Info(ctx, "pharmacy already has stock, skipping demo data", "batches", existing.TotalCount)
		return nil
	}

	line := func(product, batch, expiry string, qty int64, price, mrp string) purchase.ItemInput {
		p, m := decimal.RequireFromString(price), decimal.RequireFromString(mrp)
		return purchase.ItemInput{
			ProductName: product,
			BatchNo:     batch,
			ExpiryDate:  expiry,
			Input: pricing.Input{
				Quantity:      &qty,
				PurchasePrice: &p,
				MRP:           &m,
			},
		}
	}

	p, err := backend.Services.Purchases.Create(ctx, actor, purchase.CreateInput{
		SupplierName: "Demo Distributors",
		InvoiceNo:    "DEMO-0001",
		Notes:        "demo stock",
		Items: []purchase.ItemInput{
			line("Paracetamol 500mg", "PCM-001", "2027-12-31", 200, "1.20", "2.00"),
			line("Amoxicillin 250mg", "AMX-014", "2027-06-30", 60, "4.50", "7.25"),
			line("Cetirizine 10mg", "CTZ-203", "2026-12-31", 8, "0.80", "1.50"),
		},
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "demo purchase recorded", "purchase_id", p.ID, "items", len(p.Items))

	// Cetirizine is stocked thin on purpose so alerts have something to show.
	for _, d := range []struct {
		name, salt string
		threshold  int64
	}{
		{"Paracetamol 500mg", "Paracetamol (500mg)", 50},
		{"Amoxicillin 250mg", "Amoxycillin (250mg)", 20},
		{"Cetirizine 10mg", "Cetirizine (10mg)", 10},
	} {
		prod := product.NewProduct(actor.PharmacyID, actor.ActorID, d.name)
		prod.SaltComposition = d.salt
		prod.LowStockThreshold = d.threshold
		if err := backend.Services.Products.Create(ctx, prod); err != nil {
			return fmt.Errorf("seed product %q: %w", d.name, err)
		}
	}
	return nil
}

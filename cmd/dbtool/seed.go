package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	catalogpersistence "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/infrastructure/persistence"
	catalogservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/services"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	salespersistence "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/infrastructure/persistence"
	salesservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/services"
)

type seedFile struct {
	Tenant struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"tenant"`
	Clients  []catalogtypes.NewClient `yaml:"clients"`
	Products []struct {
		Name  string `yaml:"name"`
		Price string `yaml:"price"`
		Stock int    `yaml:"stock"`
	} `yaml:"products"`
	Orders []seedOrder `yaml:"orders"`
}

// seedOrder refers to clients and products by name.
type seedOrder struct {
	Client string `yaml:"client"`
	Status string `yaml:"status"`
	Items  []struct {
		Product  string `yaml:"product"`
		Quantity int    `yaml:"quantity"`
	} `yaml:"items"`
}

type seedPlan struct {
	TenantID   string
	TenantName string
	Clients    []catalogtypes.NewClient
	Products   []catalogtypes.NewProduct
	Orders     []seedOrder
}

func seedCmd() *cobra.Command {
	var path, topic string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a tenant with demo clients, products and orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			plan, err := parseSeed(raw)
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := applySeed(cmd.Context(), pool, plan, topic); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded tenant %s: %d clients, %d products, %d orders\n",
				plan.TenantID, len(plan.Clients), len(plan.Products), len(plan.Orders))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "config/seed/demo.yaml", "seed definition")
	cmd.Flags().StringVar(&topic, "topic", "smartbiz.order-events", "outbox topic for the seeded order events")
	return cmd
}

func parseSeed(raw []byte) (seedPlan, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return seedPlan{}, fmt.Errorf("parse seed: %w", err)
	}
	id, name, err := normalizeTenant(f.Tenant.ID, f.Tenant.Name)
	if err != nil {
		return seedPlan{}, err
	}
	plan := seedPlan{TenantID: id, TenantName: name, Clients: f.Clients, Orders: f.Orders}

	products := make(map[string]bool, len(f.Products))
	for _, p := range f.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
		if err != nil {
			return seedPlan{}, fmt.Errorf("product %q price: %w", p.Name, err)
		}
		plan.Products = append(plan.Products, catalogtypes.NewProduct{Name: p.Name, Price: price, Stock: p.Stock})
		products[strings.TrimSpace(p.Name)] = true
	}
	clients := make(map[string]bool, len(f.Clients))
	for _, c := range f.Clients {
		clients[strings.TrimSpace(c.Name)] = true
	}
	for i, o := range f.Orders {
		if !clients[strings.TrimSpace(o.Client)] {
			return seedPlan{}, fmt.Errorf("order %d: unknown client %q", i+1, o.Client)
		}
		for _, it := range o.Items {
			if !products[strings.TrimSpace(it.Product)] {
				return seedPlan{}, fmt.Errorf("order %d: unknown product %q", i+1, it.Product)
			}
		}
		if o.Status != "" {
			if _, ok := salestypes.ParseStatus(o.Status); !ok {
				return seedPlan{}, fmt.Errorf("order %d: unknown status %q", i+1, o.Status)
			}
		}
	}
	return plan, nil
}

func applySeed(ctx context.Context, pool *pgxpool.Pool, plan seedPlan, topic string) error {
	if _, err := upsertTenant(ctx, pool, plan.TenantID, plan.TenantName); err != nil {
		return err
	}

	catalog := catalogservices.NewCatalogService(catalogpersistence.NewClientPGStore(pool), catalogpersistence.NewProductPGStore(pool))
	clientIDs := make(map[string]string, len(plan.Clients))
	for _, in := range plan.Clients {
		c, err := catalog.CreateClient(ctx, plan.TenantID, in)
		if err != nil {
			return fmt.Errorf("client %q: %w", in.Name, err)
		}
		clientIDs[c.Name] = c.ID
	}
	productIDs := make(map[string]string, len(plan.Products))
	for _, in := range plan.Products {
		p, err := catalog.CreateProduct(ctx, plan.TenantID, in)
		if err != nil {
			return fmt.Errorf("product %q: %w", in.Name, err)
		}
		productIDs[p.Name] = p.ID
	}

	orders := salesservices.NewOrdersService(salespersistence.NewOrderPGStore(pool, topic))
	for i, o := range plan.Orders {
		lines := make([]salestypes.CartLine, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, salestypes.CartLine{ProductID: productIDs[strings.TrimSpace(it.Product)], Quantity: it.Quantity})
		}
		created, err := orders.CreateOrder(ctx, plan.TenantID, "dbtool", clientIDs[strings.TrimSpace(o.Client)], lines)
		if err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
		target, _ := salestypes.ParseStatus(o.Status)
		if target == "" || target == salestypes.StatusPending {
			continue
		}
		if _, err := orders.SetOrderStatus(ctx, plan.TenantID, created.ID, target); err != nil {
			return fmt.Errorf("order %d status: %w", i+1, err)
		}
	}
	return nil
}

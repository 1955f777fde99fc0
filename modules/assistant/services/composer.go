package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/money"
)

const (
	DefaultListLimit       = 12
	DefaultOrdersListLimit = 10
)

var helpLines = []string{
	"Posso responder usando dados do seu tenant.",
	"",
	"Exemplos de perguntas:",
	`- "Resumo do dashboard"`,
	`- "Quantos clientes tenho?"`,
	`- "Listar clientes"`,
	`- "Produtos com estoque baixo até 10"`,
	`- "Listar produtos"`,
	`- "Pedidos pendentes"`,
	`- "Listar pedidos cancelados"`,
	`- "Cliente Carla"`,
	`- "Produto Camiseta"`,
}

func HelpText() string {
	return strings.Join(helpLines, "\n")
}

func statusLabel(s salestypes.Status) string {
	switch s {
	case salestypes.StatusPending:
		return "Pendente"
	case salestypes.StatusCompleted:
		return "Concluído"
	case salestypes.StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Composer answers an Intent from tenant data. Sections are read in
// parallel and always emitted in the same order.
type Composer struct {
	Reader          ports.Reader
	Money           money.Formatter
	ListLimit       int
	OrdersListLimit int
}

func NewComposer(reader ports.Reader, m money.Formatter) *Composer {
	return &Composer{Reader: reader, Money: m, ListLimit: DefaultListLimit, OrdersListLimit: DefaultOrdersListLimit}
}

func (c *Composer) Compose(ctx context.Context, tenantID string, in types.Intent) (string, error) {
	sections := []func(context.Context, string, types.Intent) (string, error){
		c.kpiSection,
		c.clientSection,
		c.productSection,
		c.orderSection,
	}
	out := make([]string, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, section := range sections {
		g.Go(func() error {
			text, err := section(gctx, tenantID, in)
			if err != nil {
				return err
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if answer := joinParts(out...); answer != "" {
		return answer, nil
	}
	return HelpText(), nil
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func (c *Composer) kpiSection(ctx context.Context, tenantID string, in types.Intent) (string, error) {
	if !in.WantsKPIs {
		return "", nil
	}
	clients, err := c.Reader.CountClients(ctx, tenantID)
	if err != nil {
		return "", err
	}
	products, err := c.Reader.CountProducts(ctx, tenantID)
	if err != nil {
		return "", err
	}
	low, err := c.Reader.CountLowStock(ctx, tenantID, in.StockLimit)
	if err != nil {
		return "", err
	}
	orders, err := c.Reader.CountOrders(ctx, tenantID)
	if err != nil {
		return "", err
	}
	revenue, err := c.Reader.Revenue(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		"Resumo do tenant",
		fmt.Sprintf("Clientes: %d", clients),
		fmt.Sprintf("Produtos: %d", products),
		fmt.Sprintf("Estoque baixo (≤ %d): %d", in.StockLimit, low),
		fmt.Sprintf("Pedidos: %d (Pendentes: %d | Concluídos: %d | Cancelados: %d)", orders.Total, orders.Pending, orders.Completed, orders.Cancelled),
		"Receita (concluídos): " + c.Money.Format(revenue),
	}, "\n"), nil
}

func (c *Composer) clientSection(ctx context.Context, tenantID string, in types.Intent) (string, error) {
	if in.ClientName != "" {
		found, err := c.Reader.SearchClients(ctx, tenantID, in.ClientName, c.ListLimit)
		if err != nil {
			return "", err
		}
		if len(found) == 0 {
			return fmt.Sprintf("Não encontrei cliente com nome parecido com \"%s\".", in.ClientName), nil
		}
		return fmt.Sprintf("Clientes encontrados (%d):\n", len(found)) + clientLines(found), nil
	}
	if !in.WantsClients {
		return "", nil
	}

	n, err := c.Reader.CountClients(ctx, tenantID)
	if err != nil {
		return "", err
	}
	head := fmt.Sprintf("Clientes cadastrados: %d", n)
	if !in.WantsList {
		return head, nil
	}
	recent, err := c.Reader.RecentClients(ctx, tenantID, c.ListLimit)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return joinParts(head, "Nenhum cliente cadastrado ainda."), nil
	}
	return joinParts(head, "Últimos clientes:\n"+clientLines(recent)), nil
}

func clientLines(cs []catalogtypes.Client) string {
	lines := make([]string, 0, len(cs))
	for _, cl := range cs {
		line := "- " + cl.Name
		if cl.Email != "" {
			line += " • " + cl.Email
		}
		if cl.Phone != "" {
			line += " • " + cl.Phone
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) productSection(ctx context.Context, tenantID string, in types.Intent) (string, error) {
	switch {
	case in.ProductName != "":
		found, err := c.Reader.SearchProducts(ctx, tenantID, in.ProductName, c.ListLimit)
		if err != nil {
			return "", err
		}
		if len(found) == 0 {
			return fmt.Sprintf("Não encontrei produto com nome parecido com \"%s\".", in.ProductName), nil
		}
		return fmt.Sprintf("Produtos encontrados (%d):\n", len(found)) + c.productLines(found), nil

	case in.WantsStock:
		low, err := c.Reader.LowStock(ctx, tenantID, in.StockLimit, c.ListLimit)
		if err != nil {
			return "", err
		}
		if len(low) == 0 {
			return fmt.Sprintf("Nenhum produto com estoque baixo (≤ %d).", in.StockLimit), nil
		}
		return fmt.Sprintf("Produtos com estoque baixo (≤ %d):\n", in.StockLimit) + c.productLines(low), nil

	case in.WantsProducts:
		n, err := c.Reader.CountProducts(ctx, tenantID)
		if err != nil {
			return "", err
		}
		head := fmt.Sprintf("Produtos cadastrados: %d", n)
		if !in.WantsList {
			return head, nil
		}
		recent, err := c.Reader.RecentProducts(ctx, tenantID, c.ListLimit)
		if err != nil {
			return "", err
		}
		if len(recent) == 0 {
			return joinParts(head, "Nenhum produto cadastrado ainda."), nil
		}
		return joinParts(head, "Últimos produtos:\n"+c.productLines(recent)), nil
	}
	return "", nil
}

func (c *Composer) productLines(ps []catalogtypes.Product) string {
	lines := make([]string, 0, len(ps))
	for _, p := range ps {
		lines = append(lines, fmt.Sprintf("- %s • estoque: %d • preço: %s", p.Name, p.Stock, c.Money.Format(p.Price)))
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) orderSection(ctx context.Context, tenantID string, in types.Intent) (string, error) {
	if !in.WantsOrders {
		return "", nil
	}
	counts, err := c.Reader.CountOrders(ctx, tenantID)
	if err != nil {
		return "", err
	}
	head := fmt.Sprintf("Pedidos: %d\nPendentes: %d | Concluídos: %d | Cancelados: %d",
		counts.Total, counts.Pending, counts.Completed, counts.Cancelled)

	if !in.WantsList && in.StatusFilter == "" && !in.WantsRecent {
		return head, nil
	}
	orders, err := c.Reader.RecentOrders(ctx, tenantID, in.StatusFilter, c.OrdersListLimit)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return joinParts(head, "Nenhum pedido encontrado com esse filtro."), nil
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		name := o.ClientName
		if name == "" {
			name = "Cliente"
		}
		if o.ClientEmail != "" {
			name += " (" + o.ClientEmail + ")"
		}
		lines = append(lines, fmt.Sprintf("- %s • %s • total: %s", name, statusLabel(o.Status), c.Money.Format(o.Total)))
	}
	title := "Últimos pedidos:"
	if in.StatusFilter != "" {
		title = "Filtro: " + statusLabel(in.StatusFilter) + "\n" + title
	}
	return joinParts(head, title+"\n"+strings.Join(lines, "\n")), nil
}

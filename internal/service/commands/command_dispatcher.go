package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/service/sales"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the operator commands.
const HelpText = `Commands:
/lowstock - items at or below 20% of initial stock
/addstock <item> <initial> <extra> <price> - add stock
/restock <item> <qty> - restock an existing item
/sale <item> <qty> <patient> - sell to a patient
/invoice <patient> - patient invoice
/help - this message
Quote item names with spaces, e.g. /restock "bandage roll" 5`

var usage = map[models.CommandType]string{
	models.CommandAddStock: "/addstock <item> <initial> <extra> <price>",
	models.CommandRestock:  "/restock <item> <qty>",
	models.CommandSale:     "/sale <item> <qty> <patient>",
	models.CommandInvoice:  "/invoice <patient>",
}

// InventoryOperations is the inventory surface the dispatcher drives.
type InventoryOperations interface {
	AddStock(ctx context.Context, item string, initialQuantity, extraQuantity int64, price decimal.Decimal) (models.InventoryItem, error)
	Restock(ctx context.Context, item string, amount int64) (models.InventoryItem, error)
	LowStock(ctx context.Context) ([]string, error)
}

// SalesOperations is the sales surface the dispatcher drives.
type SalesOperations interface {
	ProcessSale(ctx context.Context, patient, item string, quantity int64) (models.SaleRecord, error)
	GenerateInvoice(ctx context.Context, patient string) (models.Invoice, error)
}

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	inventory InventoryOperations
	sales     SalesOperations
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(inv InventoryOperations, salesOps SalesOperations, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inventory: inv, sales: salesOps, logger: logger}
}

// HandleCommand runs the command and returns the reply for the operator.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandHelp:
		return HelpText, nil
	case models.CommandLowStock:
		items, err := s.inventory.LowStock(ctx)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return "All items are above 20% of initial stock.", nil
		}
		return inventory.LowStockMessage(items), nil
	case models.CommandAddStock:
		if len(cmd.Args) != 4 {
			return "", invalid(cmd.Type)
		}
		initial, err1 := strconv.ParseInt(cmd.Args[1], 10, 64)
		extra, err2 := strconv.ParseInt(cmd.Args[2], 10, 64)
		price, err3 := decimal.NewFromString(cmd.Args[3])
		if err := errors.Join(err1, err2, err3); err != nil {
			return "", invalid(cmd.Type)
		}
		item, err := s.inventory.AddStock(ctx, cmd.Args[0], initial, extra, price)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Stock updated: %s now has %d units at $%s.", item.Item, item.Quantity, item.Price.StringFixed(2)), nil
	case models.CommandRestock:
		if len(cmd.Args) != 2 {
			return "", invalid(cmd.Type)
		}
		amount, err := strconv.ParseInt(cmd.Args[1], 10, 64)
		if err != nil {
			return "", invalid(cmd.Type)
		}
		if _, err := s.inventory.Restock(ctx, cmd.Args[0], amount); err != nil {
			return "", err
		}
		return inventory.RestockMessage(cmd.Args[0], amount), nil
	case models.CommandSale:
		if len(cmd.Args) < 3 {
			return "", invalid(cmd.Type)
		}
		qty, err := strconv.ParseInt(cmd.Args[1], 10, 64)
		if err != nil {
			return "", invalid(cmd.Type)
		}
		patient := strings.Join(cmd.Args[2:], " ")
		sale, err := s.sales.ProcessSale(ctx, patient, cmd.Args[0], qty)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Sale recorded for %s: %d x %s, total $%s.", sale.Patient, sale.Quantity, sale.Item, sale.Total.StringFixed(2)), nil
	case models.CommandInvoice:
		if len(cmd.Args) == 0 {
			return "", invalid(cmd.Type)
		}
		invoice, err := s.sales.GenerateInvoice(ctx, strings.Join(cmd.Args, " "))
		if err != nil {
			return "", err
		}
		return FormatInvoice(invoice), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// FormatInvoice renders an invoice as a text message.
func FormatInvoice(invoice models.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice for %s\n", invoice.Patient)
	for _, row := range invoice.Rows {
		fmt.Fprintf(&b, "- %s x%d: $%s\n", row.Item, row.Quantity, row.Total.StringFixed(2))
	}
	b.WriteString(sales.ConfirmationMessage(invoice))
	return b.String()
}

// ReplyForError turns a command failure into an operator-facing message.
// Storage and unexpected failures get a generic reply.
func ReplyForError(err error) string {
	var insufficient *models.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Not enough %s in stock: %d requested, %d available.", insufficient.Item, insufficient.Requested, insufficient.Available)
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, models.ErrInvalidArgument):
		return err.Error()
	case errors.Is(err, models.ErrNotFound):
		return "Not found: " + strings.TrimSuffix(err.Error(), ": "+models.ErrNotFound.Error())
	case errors.Is(err, models.ErrNoSalesFound):
		return "No sales found for this patient."
	case errors.Is(err, models.ErrConflict):
		return "The records changed while your request was processed. Please try again."
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command.\n" + HelpText
	default:
		return "Something went wrong while saving. Please try again later."
	}
}

func invalid(t models.CommandType) error {
	return fmt.Errorf("usage: %s: %w", usage[t], ErrInvalidArguments)
}

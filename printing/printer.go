package printing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// Spooler renders kitchen chits and customer receipts into a spool
// directory that the print daemon watches. Everything here is best-effort:
// a failed print is logged and dropped, it never fails the request that
// triggered it.
type Spooler struct {
	dir string
}

func NewSpooler(dir string) *Spooler {
	if dir == "" {
		dir = "spool"
	}
	return &Spooler{dir: dir}
}

// PrintKitchenChitAsync spools the chit for a freshly created order.
func (s *Spooler) PrintKitchenChitAsync(order *models.Order) {
	go func() {
		if err := s.printKitchenChit(order); err != nil {
			utils.ErrorLogger.Printf("kitchen chit for order %s failed: %v", order.OrderNumber, err)
		}
	}()
}

// PrintReceiptAsync spools the customer receipt after payment completes.
func (s *Spooler) PrintReceiptAsync(order *models.Order) {
	go func() {
		if err := s.printReceipt(order); err != nil {
			utils.ErrorLogger.Printf("receipt for order %s failed: %v", order.OrderNumber, err)
		}
	}()
}

// printKitchenChit writes the plain-text chit for the thermal printer.
func (s *Spooler) printKitchenChit(order *models.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*** KITCHEN ***\n")
	fmt.Fprintf(&b, "%s  TABLE %d\n", order.OrderNumber, order.TableNumber)
	fmt.Fprintf(&b, "%s\n", time.Now().Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "--------------------------------\n")
	for _, item := range order.OrderItems {
		marker := ""
		if item.IsParcel {
			marker = "  [PARCEL]"
		}
		fmt.Fprintf(&b, "%2d x %s%s\n", item.Quantity, item.Name, marker)
		if item.Notes != "" {
			fmt.Fprintf(&b, "     > %s\n", item.Notes)
		}
	}
	fmt.Fprintf(&b, "--------------------------------\n")

	return s.writeSpoolFile(fmt.Sprintf("chit-%s.txt", order.OrderNumber), []byte(b.String()))
}

// printReceipt renders the customer receipt PDF.
func (s *Spooler) printReceipt(order *models.Order) error {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 8, "MASALA BITE", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Receipt %s", order.OrderNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %d  %s", order.TableNumber, time.Now().Format("02 Jan 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	for _, item := range order.OrderItems {
		pdf.CellFormat(70, 5, fmt.Sprintf("%d x %s", item.Quantity, item.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, utils.FormatRupees(item.Subtotal), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	cgst, sgst := utils.SplitGST(order.GSTAmount)
	rows := []struct {
		label  string
		amount int64
	}{
		{"Subtotal", order.Subtotal},
		{"CGST", cgst},
		{"SGST", sgst},
		{"TOTAL", order.TotalAmount},
	}
	for _, r := range rows {
		pdf.CellFormat(70, 5, r.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, utils.FormatRupees(r.amount), "", 1, "R", false, 0, "")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(filepath.Join(s.dir, fmt.Sprintf("receipt-%s.pdf", order.OrderNumber)))
}

func (s *Spooler) writeSpoolFile(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

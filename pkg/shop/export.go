package shop

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"ID", "Name", "Price", "Stock", "Category", "Image", "Description", "CreatedAt", "UpdatedAt",
}

// Export writes the whole catalog as an xlsx workbook with one Products sheet.
func (s *CatalogService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetFloat(p.Price)
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Image)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

// Package catalog loads the static product lookup table that generated logs
// reference by product code.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// FileName is the conventional name of the lookup file in a course data directory.
const FileName = "products.csv"

// ErrEmptyCatalog is returned when a catalog file has a header but no products.
var ErrEmptyCatalog = errors.New("catalog: no products")

//go:embed products.csv
var defaultCSV []byte

// Product is one row of the lookup table.
type Product struct {
	ID        string
	Name      string
	Price     string
	SalePrice string
	Code      string
}

// Catalog is an ordered, read-only product table.
type Catalog struct {
	header   []string
	products []Product
	index    map[string]int
}

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(bytes.NewReader(defaultCSV))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded products.csv is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a CSV file on disk.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse reads a catalog from CSV. The first column must be the product id;
// the remaining known columns are optional.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), "productId") {
		return nil, fmt.Errorf("unexpected header %q: first column must be productId", header)
	}

	c := &Catalog{header: header, index: make(map[string]int)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(c.products)+2, err)
		}

		p := Product{ID: strings.TrimSpace(row[0])}
		if p.ID == "" {
			continue
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		fields := []*string{&p.Name, &p.Price, &p.SalePrice, &p.Code}
		for i, dst := range fields {
			if i+1 < len(row) {
				*dst = row[i+1]
			}
		}

		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	if len(c.products) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// IDs returns product ids in file order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.products))
	for i, p := range c.products {
		ids[i] = p.ID
	}
	return ids
}

// Contains reports whether id is a key of the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// WriteCSV writes the catalog in the same layout it was read from.
func (c *Catalog) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := c.header
	if len(header) == 0 {
		header = []string{"productId", "product_name", "price", "sale_price", "Code"}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range c.products {
		row := []string{p.ID, p.Name, p.Price, p.SalePrice, p.Code}
		if err := cw.Write(row[:min(len(header), len(row))]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Equal reports whether two catalogs hold the same ids in the same order.
func (c *Catalog) Equal(other *Catalog) bool {
	return slices.Equal(c.IDs(), other.IDs())
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const openFoodFactsBaseURL = "https://world.openfoodfacts.org"

// FoodProduct is one food-database hit with nutrition values per 100 g.
type FoodProduct struct {
	Name     string
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
	Barcode  string
}

// FoodAPI is the food-composition lookup consumed by the dialogue engine.
type FoodAPI interface {
	Search(ctx context.Context, query string) ([]FoodProduct, error)
	LookupBarcode(ctx context.Context, barcode string) ([]FoodProduct, error)
}

// OpenFoodFactsService queries the public OpenFoodFacts database.
type OpenFoodFactsService struct {
	baseURL string
	client  *http.Client
}

func NewOpenFoodFactsService() *OpenFoodFactsService {
	return &OpenFoodFactsService{
		baseURL: openFoodFactsBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type offProduct struct {
	ProductName string             `json:"product_name"`
	Code        string             `json:"code"`
	Nutriments  map[string]float64 `json:"nutriments"`
}

func (p offProduct) toFoodProduct() FoodProduct {
	name := p.ProductName
	if name == "" {
		name = "Unknown"
	}
	return FoodProduct{
		Name:     name,
		Calories: p.Nutriments["energy-kcal_100g"],
		Protein:  p.Nutriments["proteins_100g"],
		Fat:      p.Nutriments["fat_100g"],
		Carbs:    p.Nutriments["carbohydrates_100g"],
		Barcode:  p.Code,
	}
}

func (s *OpenFoodFactsService) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", "nutrybudy-bot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call openfoodfacts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openfoodfacts API error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse openfoodfacts JSON: %w", err)
	}
	return nil
}

// Search returns up to 10 products matching the query. An empty slice with a
// nil error means "no match", callers fall back to manual entry.
func (s *OpenFoodFactsService) Search(ctx context.Context, query string) ([]FoodProduct, error) {
	u := fmt.Sprintf(
		"%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=10",
		s.baseURL, url.QueryEscape(query),
	)

	var parsed struct {
		Products []offProduct `json:"products"`
	}
	if err := s.get(ctx, u, &parsed); err != nil {
		return nil, err
	}

	results := make([]FoodProduct, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		results = append(results, p.toFoodProduct())
	}
	return results, nil
}

// LookupBarcode resolves a single product by EAN/UPC code.
func (s *OpenFoodFactsService) LookupBarcode(ctx context.Context, barcode string) ([]FoodProduct, error) {
	u := fmt.Sprintf("%s/api/v0/product/%s.json", s.baseURL, url.PathEscape(barcode))

	var parsed struct {
		Status  int        `json:"status"`
		Product offProduct `json:"product"`
	}
	if err := s.get(ctx, u, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != 1 {
		return nil, nil
	}

	fp := parsed.Product.toFoodProduct()
	fp.Barcode = barcode
	return []FoodProduct{fp}, nil
}

// IsBarcode reports whether a query looks like an EAN-8/UPC-A/EAN-13 code.
func IsBarcode(query string) bool {
	if n := len(query); n != 8 && n != 12 && n != 13 {
		return false
	}
	for _, r := range query {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

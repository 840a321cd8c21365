// Package catalog talks to an Open Beauty Facts compatible product lookup service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// PageSize is the number of products requested per search page.
const PageSize = 100

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *logrus.Logger
}

func NewClient(opts Options, logger *logrus.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, opts.Burst),
		logger:    logger,
	}
}

type apiProduct struct {
	Code            string `json:"code"`
	ProductName     string `json:"product_name"`
	ProductNameRU   string `json:"product_name_ru"`
	Brands          string `json:"brands"`
	Categories      string `json:"categories"`
	ImageURL        string `json:"image_url"`
	ImageFrontURL   string `json:"image_front_url"`
	Quantity        string `json:"quantity"`
	IngredientsText string `json:"ingredients_text"`
}

func (p apiProduct) toEntity() entity.CatalogProduct {
	name := p.ProductName
	if name == "" {
		name = p.ProductNameRU
	}
	img := p.ImageFrontURL
	if img == "" {
		img = p.ImageURL
	}
	category := p.Categories
	if i := strings.Index(category, ","); i >= 0 {
		category = category[:i]
	}
	brand := p.Brands
	if i := strings.Index(brand, ","); i >= 0 {
		brand = brand[:i]
	}
	return entity.CatalogProduct{
		Barcode:     p.Code,
		Name:        strings.TrimSpace(name),
		Brand:       strings.TrimSpace(brand),
		Category:    strings.TrimSpace(category),
		ImageURL:    img,
		Quantity:    p.Quantity,
		Ingredients: p.IngredientsText,
	}
}

type productResponse struct {
	Status  int        `json:"status"`
	Code    string     `json:"code"`
	Product apiProduct `json:"product"`
}

type searchResponse struct {
	Count    int          `json:"count"`
	Page     int          `json:"page"`
	Products []apiProduct `json:"products"`
}

// ProductByBarcode returns nil without error when the service does not know the barcode
// or answers with a non-2xx status. Transport failures are returned as errors.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (*entity.CatalogProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, nil
	}
	var body productResponse
	ok, err := c.getJSON(ctx, c.baseURL+"/api/v2/product/"+url.PathEscape(barcode)+".json", &body)
	if err != nil || !ok {
		return nil, err
	}
	if body.Status != 1 {
		return nil, nil
	}
	p := body.Product.toEntity()
	if p.Barcode == "" {
		p.Barcode = barcode
	}
	return &p, nil
}

// Search returns one page of at most PageSize products. Non-2xx answers yield an empty page.
func (c *Client) Search(ctx context.Context, term string, page int) ([]entity.CatalogProduct, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("search_terms", term)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(PageSize))

	var body searchResponse
	ok, err := c.getJSON(ctx, c.baseURL+"/cgi/search.pl?"+params.Encode(), &body)
	if err != nil {
		return nil, err
	}
	out := make([]entity.CatalogProduct, 0, len(body.Products))
	if !ok {
		return out, nil
	}
	for _, p := range body.Products {
		e := p.toEntity()
		if e.Barcode == "" || e.Name == "" {
			continue
		}
		out = append(out, e)
		if len(out) == PageSize {
			break
		}
	}
	return out, nil
}

// getJSON decodes a 2xx response into dest. ok is false for any other status.
func (c *Client) getJSON(ctx context.Context, u string, dest any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("catalog request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger != nil {
			c.logger.WithField("status", resp.StatusCode).WithField("url", u).Debug("catalog non-2xx response")
		}
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("decode catalog response: %w", err)
	}
	return true, nil
}

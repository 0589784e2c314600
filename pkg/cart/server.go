package cart

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

// Variant is a purchasable item in the dev backend catalog.
type Variant struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	VariantTitle   string `json:"variant_title"`
	Handle         string `json:"handle"`
	Image          string `json:"image"`
	Price          int    `json:"price"`
	CompareAtPrice int    `json:"compare_at_price"`
	// Inventory caps the quantity in one cart; 0 means unlimited.
	Inventory int `json:"inventory"`
}

type Catalog struct {
	mu       sync.RWMutex
	variants map[int64]Variant
}

func NewCatalog(variants ...Variant) *Catalog {
	c := &Catalog{variants: make(map[int64]Variant, len(variants))}
	for _, v := range variants {
		c.variants[v.ID] = v
	}
	return c
}

// LoadCatalog reads a JSON array of variants.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	variants := make([]Variant, 0)
	if err := jsoncompat.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return NewCatalog(variants...), nil
}

func (c *Catalog) Variant(id int64) (Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variants[id]
	return v, ok
}

const cartCookie = "cart"

// CartServer is a small stand-in for the storefront cart endpoints, used
// by the devshop binary and by tests.
type CartServer struct {
	Storage CartStorage
	Catalog *Catalog
	Log     *zap.Logger
	// TTL of the cart cookie.
	TTL time.Duration
}

var (
	validate    = validator.New(validator.WithRequiredStructEnabled())
	formDecoder = newFormDecoder()
)

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type addForm struct {
	ID       int64 `schema:"id" validate:"required"`
	Quantity int   `schema:"quantity" validate:"gte=0"`
}

type changeBody struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type errorBody struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := jsoncompat.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func cartError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, errorBody{Status: status, Message: "Cart Error", Description: description})
}

// cartToken returns the token from the cart cookie, issuing a new one when
// create is set.
func (s *CartServer) cartToken(w http.ResponseWriter, r *http.Request, create bool) string {
	if c, err := r.Cookie(cartCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if !create {
		return ""
	}
	token := uuid.NewString()
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
	return token
}

func (s *CartServer) loadCart(r *http.Request, token string) (*Cart, error) {
	if token == "" {
		return &Cart{Items: []LineItem{}}, nil
	}
	cart, err := s.Storage.GetCart(r.Context(), token)
	if errors.Is(err, ErrCartNotFound) {
		return &Cart{Token: token, Items: []LineItem{}}, nil
	}
	return cart, err
}

func (s *CartServer) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *CartServer) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.loadCart(r, s.cartToken(w, r, false))
	if err != nil {
		s.logger().Error("load cart", zap.Error(err))
		cartError(w, http.StatusInternalServerError, "unable to load cart")
		return
	}
	cart.recalculate()
	writeJSON(w, http.StatusOK, cart)
}

// LineKey identifies a line by variant and properties.
func LineKey(variantID int64, properties map[string]string) string {
	names := make([]string, 0, len(properties))
	for k := range properties {
		names = append(names, k)
	}
	slices.Sort(names)
	var sb strings.Builder
	for _, k := range names {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(properties[k])
		sb.WriteByte(';')
	}
	sum := md5.Sum([]byte(sb.String()))
	return strconv.FormatInt(variantID, 10) + ":" + hex.EncodeToString(sum[:])
}

// properties reads properties[Name]=value pairs from a product form.
func properties(form map[string][]string) map[string]string {
	props := make(map[string]string)
	for k, v := range form {
		if !strings.HasPrefix(k, "properties[") || !strings.HasSuffix(k, "]") || len(v) == 0 {
			continue
		}
		name := k[len("properties[") : len(k)-1]
		if name != "" && v[0] != "" {
			props[name] = v[0]
		}
	}
	return props
}

const maxFormMemory = 1 << 20

// parseForm fills r.PostForm from either an urlencoded or a multipart body.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

func (s *CartServer) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		cartError(w, http.StatusBadRequest, "invalid form")
		return
	}
	var form addForm
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		cartError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if err := validate.Struct(form); err != nil {
		cartError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if form.Quantity == 0 {
		form.Quantity = 1
	}
	variant, ok := s.Catalog.Variant(form.ID)
	if !ok {
		cartError(w, http.StatusNotFound, "Cannot find variant")
		return
	}

	token := s.cartToken(w, r, true)
	cart, err := s.loadCart(r, token)
	if err != nil {
		s.logger().Error("load cart", zap.Error(err))
		cartError(w, http.StatusInternalServerError, "unable to load cart")
		return
	}
	cart.Token = token
	props := properties(r.PostForm)
	key := LineKey(variant.ID, props)

	idx := slices.IndexFunc(cart.Items, func(i LineItem) bool { return i.Key == key })
	quantity := form.Quantity
	if idx >= 0 {
		quantity += cart.Items[idx].Quantity
	}
	if variant.Inventory > 0 && quantity > variant.Inventory {
		cartError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("All %d %s are in your cart.", variant.Inventory, variant.Title))
		return
	}
	if idx >= 0 {
		cart.Items[idx].Quantity = quantity
	} else {
		cart.Items = append(cart.Items, newLine(key, variant, quantity, props))
		idx = len(cart.Items) - 1
	}
	cart.recalculate()
	if err := s.Storage.SaveCart(r.Context(), cart); err != nil {
		s.logger().Error("save cart", zap.Error(err))
		cartError(w, http.StatusInternalServerError, "unable to save cart")
		return
	}
	s.logger().Debug("added to cart", zap.String("token", token), zap.String("key", key), zap.Int("quantity", quantity))
	writeJSON(w, http.StatusOK, cart.Items[idx])
}

func newLine(key string, v Variant, quantity int, props map[string]string) LineItem {
	line := LineItem{
		Key:           key,
		ID:            v.ID,
		VariantID:     v.ID,
		ProductID:     v.ProductID,
		Quantity:      quantity,
		Price:         v.Price,
		OriginalPrice: max(v.Price, v.CompareAtPrice),
		ProductTitle:  v.Title,
		VariantTitle:  v.VariantTitle,
		Handle:        v.Handle,
		URL:           "/products/" + v.Handle + "?variant=" + strconv.FormatInt(v.ID, 10),
		Image:         v.Image,
	}
	if len(props) > 0 {
		line.Properties = props
	}
	return line
}

// ChangeItem sets the quantity of a line. The id is a line key or, for
// lines without properties, a bare variant id.
func (s *CartServer) ChangeItem(w http.ResponseWriter, r *http.Request) {
	var body changeBody
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err = decodeBody(r, &body)
	} else if err = r.ParseForm(); err == nil {
		body.ID = r.PostForm.Get("id")
		body.Quantity, err = strconv.Atoi(r.PostForm.Get("quantity"))
	}
	if err != nil || validate.Struct(body) != nil {
		cartError(w, http.StatusBadRequest, "no valid id or line parameter")
		return
	}

	token := s.cartToken(w, r, false)
	cart, err := s.loadCart(r, token)
	if err != nil {
		s.logger().Error("load cart", zap.Error(err))
		cartError(w, http.StatusInternalServerError, "unable to load cart")
		return
	}
	idx := slices.IndexFunc(cart.Items, func(i LineItem) bool {
		return i.Key == body.ID || (len(i.Properties) == 0 && strconv.FormatInt(i.VariantID, 10) == body.ID)
	})
	if idx < 0 {
		cartError(w, http.StatusBadRequest, "no valid id or line parameter")
		return
	}
	if body.Quantity == 0 {
		cart.Items = slices.Delete(cart.Items, idx, idx+1)
	} else {
		if v, ok := s.Catalog.Variant(cart.Items[idx].VariantID); ok && v.Inventory > 0 && body.Quantity > v.Inventory {
			cartError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("You can only add %d %s to the cart.", v.Inventory, v.Title))
			return
		}
		cart.Items[idx].Quantity = body.Quantity
	}
	cart.recalculate()
	if err := s.Storage.SaveCart(r.Context(), cart); err != nil {
		s.logger().Error("save cart", zap.Error(err))
		cartError(w, http.StatusInternalServerError, "unable to save cart")
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return jsoncompat.Unmarshal(data, dst)
}

// countRequests records every response by route pattern and status.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		served.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

func (s *CartServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(countRequests)
	r.Get("/cart.js", s.GetCart)
	r.Post("/cart/add.js", s.AddItem)
	r.Post("/cart/change.js", s.ChangeItem)
	return r
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actuallystonmai/predict-client/predict"
)

// transactionFlags collects the commands of one transaction from the command line.
type transactionFlags struct {
	merchantID    string
	host          string
	insecure      bool
	customerID    string
	customerEmail string

	zone       string
	keyword    string
	category   string
	searchTerm string
	tag        string
	view       string
	cart       []string
	orderID    string
	purchased  []string
	recommend  []string
	filters    []string
	baseline   []string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.merchantID, "merchant", "", "merchant id (default $PREDICT_MERCHANT_ID)")
	fs.StringVar(&f.host, "host", "", "recommender host (default $PREDICT_HOST)")
	fs.BoolVar(&f.insecure, "insecure", false, "use http instead of https")
	fs.StringVar(&f.customerID, "customer-id", "", "identify the customer by id")
	fs.StringVar(&f.customerEmail, "customer-email", "", "identify the customer by email")

	fs.StringVar(&f.zone, "zone", "", "availability zone")
	fs.StringVar(&f.keyword, "keyword", "", "keyword")
	fs.StringVar(&f.category, "category", "", "category path being browsed")
	fs.StringVar(&f.searchTerm, "search", "", "search term")
	fs.StringVar(&f.tag, "tag", "", "tag")
	fs.StringVar(&f.view, "view", "", "item id being viewed")
	fs.StringArrayVar(&f.cart, "cart", nil, "cart item as id:price:quantity (repeatable)")
	fs.StringVar(&f.orderID, "order", "", "purchase order id")
	fs.StringArrayVar(&f.purchased, "purchased", nil, "purchased item as id:price:quantity (repeatable)")
	fs.StringArrayVar(&f.recommend, "recommend", nil, "recommendation logic, optionally LOGIC:limit (repeatable)")
	fs.StringArrayVar(&f.filters, "filter", nil, "filter for every recommendation as include|exclude:RULE:field=v1,v2 (repeatable)")
	fs.StringSliceVar(&f.baseline, "baseline", nil, "baseline item ids for every recommendation")
}

// apply copies connection settings into the session, falling back to cfg.
func (f *transactionFlags) apply(s *predict.Session) {
	merchant := f.merchantID
	if merchant == "" {
		merchant = cfg.MerchantID
	}
	if merchant != "" {
		s.SetMerchantID(merchant)
	}
	s.SetSecure(cfg.Secure && !f.insecure)
	if f.customerID != "" {
		s.SetCustomerID(f.customerID)
	}
	if f.customerEmail != "" {
		s.SetCustomerEmail(f.customerEmail)
	}
}

func (f *transactionFlags) hostOrDefault() string {
	if f.host != "" {
		return f.host
	}
	return cfg.Host
}

// build assembles the transaction. handler receives every result.
func (f *transactionFlags) build(handler predict.ResultHandler) (*predict.Transaction, error) {
	t := predict.NewTransaction()
	if f.zone != "" {
		t.AvailabilityZone(f.zone)
	}
	if f.keyword != "" {
		t.Keyword(f.keyword)
	}
	if f.category != "" {
		t.Category(f.category)
	}
	if f.searchTerm != "" {
		t.SearchTerm(f.searchTerm)
	}
	if f.tag != "" {
		t.Tag(f.tag)
	}
	if f.view != "" {
		t.View(f.view)
	}
	if len(f.cart) > 0 {
		items, err := parseCartItems(f.cart)
		if err != nil {
			return nil, err
		}
		t.Cart(items)
	}
	if f.orderID != "" || len(f.purchased) > 0 {
		items, err := parseCartItems(f.purchased)
		if err != nil {
			return nil, err
		}
		t.Purchase(f.orderID, items)
	}

	filters := make([]filterFlag, 0, len(f.filters))
	for _, raw := range f.filters {
		ff, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, ff)
	}
	for _, raw := range f.recommend {
		req, err := parseRecommend(raw)
		if err != nil {
			return nil, err
		}
		if len(f.baseline) > 0 {
			req.SetBaseline(f.baseline)
		}
		for _, ff := range filters {
			ff.apply(req)
		}
		if err := t.Recommend(req, handler); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// parseCartItems reads items written as id:price:quantity.
func parseCartItems(raw []string) ([]predict.CartItem, error) {
	items := make([]predict.CartItem, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("cart item %q: want id:price:quantity", r)
		}
		price, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("cart item %q: invalid price: %w", r, err)
		}
		qty, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("cart item %q: invalid quantity: %w", r, err)
		}
		items = append(items, predict.NewCartItem(parts[0], price, qty))
	}
	return items, nil
}

// parseRecommend reads LOGIC or LOGIC:limit.
func parseRecommend(raw string) (*predict.RecommendationRequest, error) {
	logic, limit, hasLimit := strings.Cut(raw, ":")
	req := predict.NewRecommendationRequest(logic)
	if hasLimit {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("recommend %q: invalid limit %q", raw, limit)
		}
		req.SetLimit(n)
	}
	return req, nil
}

type filterFlag struct {
	include bool
	rule    predict.Rule
	field   string
	values  []string
}

// parseFilter reads include|exclude:RULE:field=v1,v2.
func parseFilter(raw string) (filterFlag, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return filterFlag{}, fmt.Errorf("filter %q: want include|exclude:RULE:field=values", raw)
	}
	var ff filterFlag
	switch parts[0] {
	case "include":
		ff.include = true
	case "exclude":
	default:
		return filterFlag{}, fmt.Errorf("filter %q: unknown mode %q", raw, parts[0])
	}
	ff.rule = predict.Rule(strings.ToUpper(parts[1]))
	switch ff.rule {
	case predict.RuleIs, predict.RuleIn, predict.RuleHas, predict.RuleOverlaps:
	default:
		return filterFlag{}, fmt.Errorf("filter %q: unknown rule %q", raw, parts[1])
	}
	field, values, ok := strings.Cut(parts[2], "=")
	if !ok {
		return filterFlag{}, fmt.Errorf("filter %q: missing '='", raw)
	}
	ff.field = field
	if values != "" {
		ff.values = strings.Split(values, ",")
	}
	return ff, nil
}

func (s filterFlag) apply(req *predict.RecommendationRequest) {
	first := ""
	if len(s.values) > 0 {
		first = s.values[0]
	}
	switch {
	case s.include && s.rule == predict.RuleIs:
		req.IncludeItemsWhereIs(s.field, first)
	case s.include && s.rule == predict.RuleIn:
		req.IncludeItemsWhereIn(s.field, s.values)
	case s.include && s.rule == predict.RuleHas:
		req.IncludeItemsWhereHas(s.field, first)
	case s.include && s.rule == predict.RuleOverlaps:
		req.IncludeItemsWhereOverlaps(s.field, s.values)
	case s.rule == predict.RuleIs:
		req.ExcludeItemsWhereIs(s.field, first)
	case s.rule == predict.RuleIn:
		req.ExcludeItemsWhereIn(s.field, s.values)
	case s.rule == predict.RuleHas:
		req.ExcludeItemsWhereHas(s.field, first)
	default:
		req.ExcludeItemsWhereOverlaps(s.field, s.values)
	}
}

package predict

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ResultHandler receives the result of one recommendation request.
type ResultHandler func(result *RecommendationResult)

// Transaction accumulates the events of one page view and the
// recommendations it needs. Send a transaction only once, and do not
// change it once sent. A Transaction is not safe for concurrent use.
type Transaction struct {
	tracked *RecommendedItem

	commands   [numCommandKinds][]command
	recommends []*RecommendationRequest
	handlers   map[string]ResultHandler

	errors []ErrorParameter
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{handlers: make(map[string]ResultHandler)}
}

// NewTrackedTransaction creates a transaction for a visitor who selected a
// previously recommended item. Views reported on it carry the feature and
// cohort the item came from.
func NewTrackedTransaction(item *RecommendedItem) (*Transaction, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	t := NewTransaction()
	t.tracked = item
	return t, nil
}

// TrackedItem returns the item the transaction was created from, or nil.
func (t *Transaction) TrackedItem() *RecommendedItem {
	return t.tracked
}

func (t *Transaction) add(c command) {
	t.commands[c.kind] = append(t.commands[c.kind], c)
}

// AvailabilityZone sets the availability zone.
func (t *Transaction) AvailabilityZone(zone string) {
	t.add(command{kind: availabilityZoneCommand, value: zone})
}

// Purchase reports a successful order. Pass every purchased item.
func (t *Transaction) Purchase(orderID string, items []CartItem) {
	t.add(command{kind: purchaseCommand, value: orderID, items: append([]CartItem(nil), items...)})
}

// SearchTerm reports the search term entered by the visitor.
func (t *Transaction) SearchTerm(term string) {
	t.add(command{kind: searchTermCommand, value: term})
}

// View reports the product page the visitor is looking at.
func (t *Transaction) View(itemID string) {
	t.add(command{kind: viewCommand, value: itemID, tracked: t.tracked})
}

// Cart reports the full content of the visitor's cart. An empty cart is
// reported with an empty slice.
func (t *Transaction) Cart(items []CartItem) {
	t.add(command{kind: cartCommand, items: append([]CartItem(nil), items...)})
}

// Category reports the category path the visitor is browsing.
func (t *Transaction) Category(category string) {
	t.add(command{kind: categoryCommand, value: category})
}

// Keyword reports a keyword used to refine a search, such as a brand.
func (t *Transaction) Keyword(keyword string) {
	t.add(command{kind: keywordCommand, value: keyword})
}

// Tag attaches an arbitrary tag to the event.
func (t *Transaction) Tag(tag string) {
	t.add(command{kind: tagCommand, value: tag})
}

// Recommend requests recommendations. handler may be nil; the result is
// then dropped. Each logic may be requested once per transaction.
func (t *Transaction) Recommend(req *RecommendationRequest, handler ResultHandler) error {
	if req == nil {
		return ErrNilRequest
	}
	t.recommends = append(t.recommends, req)
	t.handlers[req.logic] = handler
	return nil
}

// Errors returns the validation problems found by the latest serialization.
func (t *Transaction) Errors() []ErrorParameter {
	return append([]ErrorParameter(nil), t.errors...)
}

// validateCommands reports repeated single-valued commands and the
// problems of every accumulated command. A repeated recommend logic is
// returned as an error since its handler has been overwritten.
func (t *Transaction) validateCommands() ([]ErrorParameter, error) {
	var errs []ErrorParameter
	for kind, cmds := range t.commands {
		if len(cmds) > 1 {
			errs = append(errs, multipleCallError(commandKind(kind).String()))
		}
		for _, c := range cmds {
			errs = append(errs, c.validate()...)
		}
	}
	if len(t.recommends) != len(t.handlers) {
		return nil, newError(CodeNonUniqueRecommendationLogic, ErrNonUniqueLogic.Message, nil)
	}
	for _, r := range t.recommends {
		errs = append(errs, r.validate()...)
	}
	return errs, nil
}

func (t *Transaction) last(kind commandKind) (command, bool) {
	cmds := t.commands[kind]
	if len(cmds) == 0 {
		return command{}, false
	}
	return cmds[len(cmds)-1], true
}

// sessionState is the session data a serialization reads.
type sessionState struct {
	customerID    *string
	customerEmail *string
	advertisingID string
	session       string
}

// serialize builds the query of the transaction. The only state it
// changes is the problem list returned by Errors.
func (t *Transaction) serialize(st sessionState) (Query, []ErrorParameter, error) {
	t.errors = nil
	errs, err := t.validateCommands()
	if err != nil {
		return nil, nil, err
	}

	var q Query

	if st.customerID != nil {
		if *st.customerID == "" {
			errs = append(errs, emptyStringError("customer", "customer"))
		}
		q.add(paramCustomerID, *st.customerID)
	}

	if st.customerEmail != nil {
		if *st.customerEmail == "" {
			errs = append(errs, emptyStringError("email", "email"))
		}
		q.add(paramEmailHash, EmailHash(*st.customerEmail))
	}

	if c, ok := t.last(keywordCommand); ok {
		q.add(paramKeyword, c.String())
	}
	if c, ok := t.last(tagCommand); ok {
		q.add(paramTag, c.String())
	}
	if c, ok := t.last(availabilityZoneCommand); ok {
		q.add(paramAvailabilityZone, c.String())
	}
	if c, ok := t.last(cartCommand); ok {
		q.add(paramCartVersion, "1")
		q.add(paramCart, c.String())
	}
	if c, ok := t.last(categoryCommand); ok {
		q.add(paramCategory, c.String())
	}
	if c, ok := t.last(purchaseCommand); ok {
		q.add(paramOrderID, c.value)
		q.add(paramPurchase, c.String())
	}

	if err := t.serializeRecommends(&q); err != nil {
		return nil, nil, err
	}

	if c, ok := t.last(searchTermCommand); ok {
		q.add(paramSearchTerm, c.String())
	}
	if c, ok := t.last(viewCommand); ok {
		q.add(paramView, c.String())
	}

	q.add(paramMarker, "1")

	if st.advertisingID != "" {
		q.add(paramAdvertisingID, st.advertisingID)
	}
	if st.session != "" {
		q.add(paramSession, st.session)
	}

	if len(errs) > 0 {
		s, err := marshalJSON(errs)
		if err != nil {
			return nil, nil, fmt.Errorf("encode errors: %w", err)
		}
		q.add(paramError, s)
	}

	t.errors = errs
	return q, errs, nil
}

func (t *Transaction) serializeRecommends(q *Query) error {
	var (
		features  []string
		baselines []string
		filters   []filterJSON
	)
	for _, r := range t.recommends {
		features = append(features, r.feature())
		if r.hasBaseline {
			baselines = append(baselines, r.logic+strings.Join(r.baseline, "|"))
		}
		for _, f := range r.filters {
			filters = append(filters, f.wire())
		}
	}
	if len(features) > 0 {
		q.add(paramFeatures, strings.Join(features, "|"))
	}
	for _, b := range baselines {
		q.add(paramBaseline, b)
	}
	if len(filters) > 0 {
		s, err := marshalJSON(filters)
		if err != nil {
			return fmt.Errorf("encode filters: %w", err)
		}
		q.add(paramFilters, s)
	}
	return nil
}

// handleResults hands every result to the handler registered for its
// feature. Results nobody asked for are dropped.
func (t *Transaction) handleResults(results []*RecommendationResult, log zerolog.Logger) {
	for _, r := range results {
		if r == nil || r.FeatureID == "" {
			log.Debug().Msg("result without feature id, dropped")
			continue
		}
		h, ok := t.handlers[r.FeatureID]
		if !ok {
			log.Warn().Str("feature", r.FeatureID).Msg("no handler registered for feature, dropped")
			continue
		}
		if h == nil {
			log.Debug().Str("feature", r.FeatureID).Msg("nil handler for feature, dropped")
			continue
		}
		log.Debug().Str("feature", r.FeatureID).Int("products", len(r.Products)).Msg("routing result")
		h(r)
	}
}

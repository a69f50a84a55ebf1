package predict

// commandKind enumerates the single-valued commands a transaction accumulates.
type commandKind int

const (
	availabilityZoneCommand commandKind = iota
	keywordCommand
	cartCommand
	categoryCommand
	purchaseCommand
	searchTermCommand
	tagCommand
	viewCommand
	numCommandKinds
)

var commandNames = [numCommandKinds]string{
	availabilityZoneCommand: "availabilityZone",
	keywordCommand:          "keyword",
	cartCommand:             "cart",
	categoryCommand:         "category",
	purchaseCommand:         "purchase",
	searchTermCommand:       "searchTerm",
	tagCommand:              "tag",
	viewCommand:             "view",
}

func (k commandKind) String() string { return commandNames[k] }

// command holds the payload of one call. Which fields are used depends on kind:
// value for the string commands, the purchase order id and the view item id;
// items for cart and purchase; tracked for view.
type command struct {
	kind    commandKind
	value   string
	items   []CartItem
	tracked *RecommendedItem
}

func (c command) validate() []ErrorParameter {
	name := c.kind.String()
	var errs []ErrorParameter
	switch c.kind {
	case cartCommand:
		errs = appendItemErrors(errs, name, c.items)
	case purchaseCommand:
		if c.value == "" {
			errs = append(errs, emptyStringError(name, "orderId"))
		}
		errs = appendItemErrors(errs, name, c.items)
	case viewCommand:
		if c.value == "" {
			errs = append(errs, emptyStringError(name, "itemId"))
		}
	default:
		if c.value == "" {
			errs = append(errs, emptyStringError(name, name))
		}
	}
	return errs
}

func appendItemErrors(errs []ErrorParameter, command string, items []CartItem) []ErrorParameter {
	for _, it := range items {
		if it.itemID == "" {
			errs = append(errs, emptyStringError(command, "itemId"))
		}
	}
	return errs
}

// String is the query value of the command.
func (c command) String() string {
	switch c.kind {
	case cartCommand, purchaseCommand:
		return joinItems(c.items)
	case viewCommand:
		s := "i:" + c.value
		if c.tracked != nil && c.tracked.result != nil {
			s += ",t:" + c.tracked.result.FeatureID + ",c:" + c.tracked.result.Cohort
		}
		return s
	default:
		return c.value
	}
}

// Query parameter names of the serialized commands.
const (
	paramCustomerID       = "ci"
	paramEmailHash        = "eh"
	paramKeyword          = "k"
	paramTag              = "t"
	paramAvailabilityZone = "az"
	paramCartVersion      = "cv"
	paramCart             = "ca"
	paramCategory         = "vc"
	paramOrderID          = "oi"
	paramPurchase         = "co"
	paramFeatures         = "f"
	paramBaseline         = "pi"
	paramFilters          = "ex"
	paramSearchTerm       = "q"
	paramView             = "v"
	paramMarker           = "cp"
	paramAdvertisingID    = "vi"
	paramSession          = "s"
	paramError            = "error"
)

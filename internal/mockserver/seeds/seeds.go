package seeds

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/actuallystonmai/predict-client/internal/mockserver"
)

var categories = []string{
	"Books > Literature > Sci-Fi",
	"Books > Literature > Horror",
	"Electronics > Audio",
	"Home > Kitchen",
	"Accessories",
}

var titles = map[string][]string{
	"Books > Literature > Sci-Fi": {
		"Dune", "Foundation", "Neuromancer", "Hyperion", "The Left Hand of Darkness",
		"Solaris", "The Dispossessed", "Snow Crash",
	},
	"Books > Literature > Horror": {
		"Dracula", "The Shining", "Frankenstein", "It", "The Haunting of Hill House",
		"Pet Sematary", "Carrie", "Bird Box",
	},
	"Electronics > Audio": {
		"Studio Headphones", "Bookshelf Speakers", "Turntable", "Portable Speaker",
		"In-Ear Monitors", "Soundbar", "DAC Amplifier", "Microphone",
	},
	"Home > Kitchen": {
		"Chef Knife", "Cast Iron Skillet", "Espresso Machine", "Stand Mixer",
		"Cutting Board", "Dutch Oven", "Kettle", "Blender",
	},
	"Accessories": {
		"Leather Wallet", "Canvas Tote", "Sunglasses", "Wool Scarf",
		"Watch Strap", "Key Organizer", "Travel Pouch", "Umbrella",
	},
}

var brands = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli"}

var tags = []string{"new", "sale", "gift", "bestseller", "eco", "limited"}

// Generate builds a deterministic catalog of n products with item ids
// "1".."n". Popularity follows a power law; creation dates spread over two
// years before now.
func Generate(n int, seed int64, now time.Time) []mockserver.Product {
	rng := rand.New(rand.NewSource(seed))

	products := make([]mockserver.Product, 0, n)
	for i := 0; i < n; i++ {
		category := categories[i%len(categories)]
		titleList := titles[category]
		title := titleList[(i/len(categories))%len(titleList)]
		if i >= len(categories)*len(titleList) {
			title = fmt.Sprintf("%s %d", title, i/(len(categories)*len(titleList))+1)
		}

		products = append(products, mockserver.Product{
			ID:         strconv.Itoa(i + 1),
			Title:      title,
			Category:   category,
			Brand:      brands[rng.Intn(len(brands))],
			Tags:       pickTags(rng),
			Price:      math.Round((5+rng.Float64()*195)*100) / 100,
			Popularity: powerLawScore(rng),
			Available:  rng.Float64() > 0.1,
			CreatedAt:  now.AddDate(0, 0, -rng.Intn(730)),
		})
	}
	return products
}

// pickTags returns one to three distinct tags joined by "|".
func pickTags(rng *rand.Rand) string {
	n := 1 + rng.Intn(3)
	perm := rng.Perm(len(tags))[:n]
	picked := make([]string, 0, n)
	for _, i := range perm {
		picked = append(picked, tags[i])
	}
	return strings.Join(picked, "|")
}

func powerLawScore(rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.001
	}
	raw := math.Pow(u, 2.0)
	if raw < 0.01 {
		raw = 0.01
	}
	return math.Round(raw*100) / 100
}

type catalogFile struct {
	Products []mockserver.Product `yaml:"products"`
}

// LoadFile reads a YAML catalog:
//
//	products:
//	  - item: "1"
//	    title: Dune
//	    category: Books > Literature > Sci-Fi
//	    available: true
func LoadFile(path string) ([]mockserver.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog %s: product %d has no item id", path, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate item id %q", path, p.ID)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}

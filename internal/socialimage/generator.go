package socialimage

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Images holds the generated card URLs.
type Images struct {
	OG      string
	Twitter string
}

// Generator renders and stores Open Graph and Twitter cards.
type Generator struct {
	store Store
	log   zerolog.Logger
}

func NewGenerator(store Store, log zerolog.Logger) *Generator {
	return &Generator{
		store: store,
		log:   log.With().Str("component", "socialimage").Logger(),
	}
}

// Generate renders the card for text (the meta title, or the title when
// unset) and saves both variants.
func (g *Generator) Generate(ctx context.Context, text, slug string) (Images, error) {
	data, err := Render(text)
	if err != nil {
		return Images{}, err
	}

	og, err := g.store.Save(ctx, Filename(slug, text, "_og"), data)
	if err != nil {
		return Images{}, err
	}
	twitter, err := g.store.Save(ctx, Filename(slug, text, "_twitter"), data)
	if err != nil {
		return Images{}, err
	}

	g.log.Debug().Str("slug", slug).Str("og", og).Msg("Social images generated")
	return Images{OG: og, Twitter: twitter}, nil
}

// Owns reports whether url points at a card this generator produced.
func (g *Generator) Owns(url string) bool {
	return url != "" && strings.HasPrefix(url, g.store.URL(""))
}

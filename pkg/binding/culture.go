package binding

import (
	"golang.org/x/text/language"

	"github.com/toyz/fnbridge/pkg/web"
)

// CultureCookie carries a culture preference such as "fr-FR"
const CultureCookie = "culture"

// DefaultCultures are the cultures messages are translated into
var DefaultCultures = []language.Tag{language.English, language.French, language.Spanish}

type cultureResolver struct {
	supported []language.Tag
	matcher   language.Matcher
}

func newCultureResolver(supported []language.Tag) *cultureResolver {
	if len(supported) == 0 {
		supported = DefaultCultures
	}
	return &cultureResolver{supported: supported, matcher: language.NewMatcher(supported)}
}

// resolve picks the request culture from, in order: the culture or
// ui-culture query value, the culture cookie, then Accept-Language. The
// result is the base language of the best supported match.
func (r *cultureResolver) resolve(ctx web.RequestContext) string {
	var candidates []language.Tag

	query := ctx.QueryParams()
	for _, key := range []string{"culture", "ui-culture"} {
		if v := query.Get(key); v != "" {
			if tag, err := language.Parse(v); err == nil {
				candidates = append(candidates, tag)
			}
		}
	}
	if v, ok := ctx.Request().Cookie(CultureCookie); ok && v != "" {
		if tag, err := language.Parse(v); err == nil {
			candidates = append(candidates, tag)
		}
	}
	if header := ctx.Request().Header("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil {
			candidates = append(candidates, tags...)
		}
	}

	if len(candidates) == 0 {
		return baseOf(r.supported[0])
	}
	_, index, _ := r.matcher.Match(candidates...)
	return baseOf(r.supported[index])
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

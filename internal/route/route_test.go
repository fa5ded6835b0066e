package route

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFallback(t *testing.T) {
	r := NewResolver(nil)

	// No strategy registered: the default content route, never an error.
	got := r.Resolve(42, "ext_articles", "en")
	assert.Equal(t, "en/content/category/42", got)

	got = r.Resolve(42, "ext_articles", "*")
	assert.Equal(t, "content/category/42", got)
}

func TestResolveRegisteredStrategy(t *testing.T) {
	r := NewResolver(nil)
	r.Register("ext_articles", FuncRouter(func(id int64, lang string) string {
		return fmt.Sprintf("articles/cat/%d", id)
	}))

	assert.Equal(t, "articles/cat/7", r.Resolve(7, "ext_articles", "en"))

	// Other extensions still fall back.
	assert.Equal(t, "en/content/category/7", r.Resolve(7, "ext_other", "en"))
}

func TestResolveCaching(t *testing.T) {
	calls := 0
	r := NewResolver(FuncRouter(func(id int64, lang string) string {
		calls++
		return fmt.Sprintf("route/%d", id)
	}))

	assert.Equal(t, "route/1", r.Resolve(1, "ext_a", "en"))
	assert.Equal(t, "route/1", r.Resolve(1, "ext_a", "en"))
	assert.Equal(t, 1, calls, "second resolve must hit the cache")

	// Registering a strategy invalidates cached routes.
	r.Register("ext_a", FuncRouter(func(id int64, lang string) string {
		return fmt.Sprintf("new/%d", id)
	}))
	assert.Equal(t, "new/1", r.Resolve(1, "ext_a", "en"))
}

func TestLateRegistration(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, "content/category/9", r.Resolve(9, "ext_late", ""))

	r.Register("ext_late", FuncRouter(func(id int64, lang string) string {
		return fmt.Sprintf("late/%d", id)
	}))
	assert.Equal(t, "late/9", r.Resolve(9, "ext_late", ""))
}

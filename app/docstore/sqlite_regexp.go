package docstore

import (
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

var regexCache = cache.New(2*time.Minute, 5*time.Minute)

// sqlRegexp backs the REGEXP operator of both SQLite drivers:
// "s REGEXP pattern" calls regexp(pattern, s).
func sqlRegexp(pattern, s string) (bool, error) {
	re := pattern
	if !strings.HasPrefix(pattern, "(?s)") {
		re = "(?s)" + pattern
	}

	var compiledRe *regexp.Regexp
	if reFromCache, found := regexCache.Get(re); found {
		compiledRe = reFromCache.(*regexp.Regexp)
	} else {
		var err error
		compiledRe, err = regexp.Compile(re)
		if err != nil {
			return false, err
		}
		regexCache.Set(re, compiledRe, cache.DefaultExpiration)
	}
	return compiledRe.MatchString(s), nil
}

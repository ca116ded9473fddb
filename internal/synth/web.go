package synth

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/logcourse/internal/pools"
	"github.com/nvandessel/logcourse/internal/sampler"
	"github.com/nvandessel/logcourse/internal/weighted"
)

const (
	// AccessTimeLayout is the bracketed timestamp of the access log.
	AccessTimeLayout = "02/Jan/2006:15:04:05"

	// SessionParam is the query parameter carrying the session token.
	SessionParam = "JSESSIONID"

	// StaticAssetPrefix marks the legacy asset path that is always missing.
	StaticAssetPrefix = "/stuff/"

	httpVersion = "HTTP 1.1"
)

// Byte and latency envelopes, inclusive.
var (
	SuccessBytes = [2]int{200, 4000}
	ErrorBytes   = [2]int{0, 1000}
	StaticBytes  = [2]int{50, 199}

	successLatency     = [2]int{50, 1000}
	clientErrorLatency = [2]int{20, 400}
	serverErrorLatency = [2]int{200, 2000}
)

type route int

const (
	routeCategory route = iota
	routeProduct
	routeCart
	routePurchase
	routeCartSuccess
	routeOldLink
	routeStatic
)

var routePaths = map[route]string{
	routeCategory:    "/category.screen",
	routeProduct:     "/product.screen",
	routeCart:        "/cart.do",
	routePurchase:    "/success.do",
	routeCartSuccess: "/cart/success.do",
	routeOldLink:     "/oldlink",
	routeStatic:      "/stuff/logo.ico",
}

var (
	routes = weighted.MustNew(
		weighted.Of(routeCategory, 1),
		weighted.Of(routeProduct, 1),
		weighted.Of(routeCart, 1),
		weighted.Of(routePurchase, 1),
		weighted.Of(routeCartSuccess, 1),
		weighted.Of(routeOldLink, 1),
		weighted.Of(routeStatic, 1),
	)

	cartActions = weighted.MustNew(
		weighted.Of("addtocart", 1),
		weighted.Of("remove", 1),
		weighted.Of("view", 1),
	)

	statuses = weighted.MustNew(
		weighted.Of(200, 95),
		weighted.Of(403, 5.0/3),
		weighted.Of(404, 5.0/3),
		weighted.Of(500, 5.0/3),
	)
)

// postPaths are the routes submitted as forms by the storefront.
var postPaths = map[string]bool{
	"/cart.do":         true,
	"/success.do":      true,
	"/category.screen": true,
}

// AccessRecord is one web request in Apache combined layout with cookie and
// trailing latency.
type AccessRecord struct {
	Time      time.Time
	ClientIP  string
	Method    string
	Path      string
	Query     string
	Status    int
	Bytes     int
	Referrer  string
	UserAgent string
	LatencyMS int
}

// URI returns the request target, path plus query.
func (a AccessRecord) URI() string {
	if a.Query == "" {
		return a.Path
	}
	return a.Path + "?" + a.Query
}

// Line renders:
//
//	IP - - [DD/Mon/YYYY:HH:MM:SS] "METHOD URI HTTP 1.1" STATUS BYTES "REF" "AGENT" LATENCY
func (a AccessRecord) Line() string {
	return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s" %d`,
		a.ClientIP, a.Time.Format(AccessTimeLayout), a.Method, a.URI(), httpVersion,
		a.Status, a.Bytes, a.Referrer, a.UserAgent, a.LatencyMS)
}

// Row implements Record.
func (a AccessRecord) Row() []string {
	return []string{
		a.Time.Format(AccessTimeLayout), a.ClientIP, a.Method, a.URI(),
		strconv.Itoa(a.Status), strconv.Itoa(a.Bytes), a.Referrer, a.UserAgent,
		strconv.Itoa(a.LatencyMS),
	}
}

// WebAccess synthesizes storefront access log lines.
type WebAccess struct {
	pools  *pools.Pools
	window sampler.Window
}

// NewWebAccess returns a web access synthesizer over the shared pools.
func NewWebAccess(p *pools.Pools, w sampler.Window) *WebAccess {
	return &WebAccess{pools: p, window: w}
}

// Header implements Synthesizer.
func (s *WebAccess) Header() []string {
	return []string{"time", "clientip", "method", "uri", "status", "bytes", "referer", "useragent", "latency"}
}

// Next implements Synthesizer.
func (s *WebAccess) Next(r *rand.Rand) Record {
	return s.Access(r)
}

// Access draws one request with its concrete type.
func (s *WebAccess) Access(r *rand.Rand) AccessRecord {
	rec := AccessRecord{
		Time:      s.window.Sample(r),
		ClientIP:  s.pools.ClientIPs.Pick(r),
		Referrer:  s.pools.Referrers.Pick(r),
		UserAgent: s.pools.UserAgents.Pick(r),
	}
	session := s.pools.Sessions.Pick(r)

	rt := routes.Pick(r)
	rec.Path = routePaths[rt]
	params := append(s.params(rt, r), SessionParam+"="+session)
	rec.Query = strings.Join(params, "&")

	rec.Method = "GET"
	if postPaths[rec.Path] {
		rec.Method = "POST"
	}

	if strings.HasPrefix(rec.Path, StaticAssetPrefix) {
		rec.Status = 404
		rec.Bytes = between(r, StaticBytes[0], StaticBytes[1])
	} else {
		rec.Status = statuses.Pick(r)
		if rec.Status == 200 {
			rec.Bytes = between(r, SuccessBytes[0], SuccessBytes[1])
		} else {
			rec.Bytes = between(r, ErrorBytes[0], ErrorBytes[1])
		}
	}

	lat := successLatency
	switch {
	case rec.Status >= 500:
		lat = serverErrorLatency
	case rec.Status >= 400:
		lat = clientErrorLatency
	}
	rec.LatencyMS = between(r, lat[0], lat[1])

	return rec
}

func (s *WebAccess) params(rt route, r *rand.Rand) []string {
	switch rt {
	case routeCategory:
		return []string{"categoryId=" + s.pools.Categories.Pick(r)}
	case routeProduct:
		return []string{"productId=" + s.pools.Products.Pick(r)}
	case routeCart:
		action := cartActions.Pick(r)
		params := []string{"action=" + action}
		if action != "view" {
			params = append(params, "productId="+s.pools.Products.Pick(r))
		}
		return params
	case routePurchase:
		return []string{
			"action=purchase",
			"categoryId=" + s.pools.Categories.Pick(r),
			"productId=" + s.pools.Products.Pick(r),
		}
	default:
		return nil
	}
}

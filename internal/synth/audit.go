package synth

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/logcourse/internal/pools"
	"github.com/nvandessel/logcourse/internal/sampler"
	"github.com/nvandessel/logcourse/internal/weighted"
)

// AuditTimeLayout is the Time column format of the audit CSV.
const AuditTimeLayout = "02/Jan/2006 15:04:05"

// passwordHash is the fixed credential recorded by user inserts.
const passwordHash = "1e3f0e4291be8533bce600d32c41da4fecfd0204"

// Operation is the audit Type column.
type Operation string

const (
	OpQuery   Operation = "Query"
	OpConnect Operation = "Connect"
)

// CommandKind classifies a SQL command by its leading verb.
type CommandKind int

const (
	KindSelect CommandKind = iota
	KindUpdate
	KindInsert
	KindDelete
)

func (k CommandKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindUpdate:
		return "UPDATE"
	case KindInsert:
		return "INSERT"
	case KindDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// DurationRange returns the inclusive latency envelope in milliseconds.
// Reads are fast, writes slower, deletes short.
func (k CommandKind) DurationRange() (lo, hi int) {
	switch k {
	case KindSelect:
		return 5, 50
	case KindUpdate, KindInsert:
		return 10, 100
	default:
		return 5, 30
	}
}

// commandTemplate renders one SQL statement from explicitly named fields.
type commandTemplate struct {
	kind   CommandKind
	render func(f *fieldSource) string
}

var commandTemplates = []commandTemplate{
	{KindUpdate, func(f *fieldSource) string {
		return fmt.Sprintf("UPDATE users SET email = %s WHERE userid = %d", f.plainEmail(), f.userID())
	}},
	{KindSelect, func(f *fieldSource) string {
		return fmt.Sprintf("SELECT * FROM creditcard WHERE userid = %d", f.userID())
	}},
	{KindInsert, func(f *fieldSource) string {
		return fmt.Sprintf("INSERT INTO users (username, password, fname, lname, email) VALUES (%s, %s, %s, %s, %s)",
			f.username(), passwordHash, f.firstName(), f.lastName(), f.numberedEmail())
	}},
	{KindSelect, func(f *fieldSource) string {
		return fmt.Sprintf("SELECT ccexpire FROM creditcard WHERE userid = %d", f.userID())
	}},
	{KindSelect, func(f *fieldSource) string {
		return fmt.Sprintf("SELECT email FROM users WHERE userid = %d", f.userID())
	}},
	{KindSelect, func(f *fieldSource) string {
		return fmt.Sprintf("SELECT * FROM users WHERE userid = %d", f.userID())
	}},
	{KindSelect, func(f *fieldSource) string {
		return fmt.Sprintf("SELECT username FROM users WHERE userid = %d", f.userID())
	}},
	{KindDelete, func(f *fieldSource) string {
		return fmt.Sprintf("DELETE FROM sessions WHERE userid = %d", f.userID())
	}},
	{KindUpdate, func(f *fieldSource) string {
		return fmt.Sprintf("UPDATE products SET stock = stock - 1 WHERE productid = %s", f.productID())
	}},
	{KindInsert, func(f *fieldSource) string {
		return fmt.Sprintf("INSERT INTO orders (userid, productid, quantity) VALUES (%d, %s, %d)",
			f.userID(), f.productID(), f.quantity())
	}},
}

var (
	operations = weighted.MustNew(
		weighted.Of(OpQuery, 0.8),
		weighted.Of(OpConnect, 0.2),
	)
	templates = uniformIndex(len(commandTemplates))
)

func uniformIndex(n int) *weighted.Selector[int] {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s, err := weighted.Uniform(idx...)
	if err != nil {
		panic(err)
	}
	return s
}

// fieldSource draws named template fields from the pools.
type fieldSource struct {
	p *pools.Pools
	r *rand.Rand
}

func (f *fieldSource) userID() int       { return between(f.r, 1000, 9999) }
func (f *fieldSource) quantity() int     { return between(f.r, 1, 5) }
func (f *fieldSource) productID() string { return f.p.Products.Pick(f.r) }
func (f *fieldSource) firstName() string { return f.p.FirstNames.Pick(f.r) }
func (f *fieldSource) lastName() string  { return f.p.LastNames.Pick(f.r) }
func (f *fieldSource) domain() string    { return f.p.EmailDomains.Pick(f.r) }

func (f *fieldSource) username() string {
	return strings.ToLower(f.firstName()) + strconv.Itoa(between(f.r, 10, 99))
}

func (f *fieldSource) plainEmail() string {
	return strings.ToLower(f.firstName()) + "@" + f.domain()
}

func (f *fieldSource) numberedEmail() string {
	return f.username() + "@" + f.domain()
}

// AuditRecord is one database audit row. Connect rows carry no duration;
// Measured distinguishes that from a zero-length query.
type AuditRecord struct {
	Time       time.Time
	Type       Operation
	Kind       CommandKind
	Command    string
	DurationMS int
	Measured   bool
}

// Row implements Record as Time,Type,Command,Duration.
func (a AuditRecord) Row() []string {
	duration := ""
	if a.Measured {
		duration = strconv.Itoa(a.DurationMS)
	}
	return []string{a.Time.Format(AuditTimeLayout), string(a.Type), a.Command, duration}
}

// Line renders the row as a single CSV record without terminator.
func (a AuditRecord) Line() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(a.Row())
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// DBAudit synthesizes database audit rows.
type DBAudit struct {
	pools  *pools.Pools
	window sampler.Window
}

// NewDBAudit returns an audit synthesizer over the shared pools.
func NewDBAudit(p *pools.Pools, w sampler.Window) *DBAudit {
	return &DBAudit{pools: p, window: w}
}

// Header implements Synthesizer.
func (s *DBAudit) Header() []string {
	return []string{"Time", "Type", "Command", "Duration"}
}

// Next implements Synthesizer.
func (s *DBAudit) Next(r *rand.Rand) Record {
	return s.Audit(r)
}

// Audit draws one row with its concrete type.
func (s *DBAudit) Audit(r *rand.Rand) AuditRecord {
	rec := AuditRecord{Time: s.window.Sample(r), Type: operations.Pick(r)}

	if rec.Type == OpConnect {
		rec.Command = s.pools.DBAccounts.Pick(r)
		return rec
	}

	tmpl := commandTemplates[templates.Pick(r)]
	rec.Kind = tmpl.kind
	rec.Command = tmpl.render(&fieldSource{p: s.pools, r: r})
	lo, hi := tmpl.kind.DurationRange()
	rec.DurationMS = between(r, lo, hi)
	rec.Measured = true
	return rec
}

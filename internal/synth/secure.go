package synth

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/nvandessel/logcourse/internal/pools"
	"github.com/nvandessel/logcourse/internal/sampler"
	"github.com/nvandessel/logcourse/internal/weighted"
)

// SecureTimeLayout is the leading timestamp of the host security log.
const SecureTimeLayout = "Mon Jan 02 2006 15:04:05"

const (
	secureHost    = "www1"
	secureProcess = "sshd"
	sshPort       = 22
)

// SecureEvent identifies which message family a security record belongs to.
type SecureEvent string

const (
	EventFailedPassword SecureEvent = "failed_password"
	EventAccepted       SecureEvent = "successful_login"
	EventSessionOpened  SecureEvent = "session_opened"
	EventSessionClosed  SecureEvent = "session_closed"
	EventServer         SecureEvent = "server_events"
)

var (
	secureEvents = weighted.MustNew(
		weighted.Of(EventFailedPassword, 0.40),
		weighted.Of(EventAccepted, 0.30),
		weighted.Of(EventSessionOpened, 0.15),
		weighted.Of(EventSessionClosed, 0.10),
		weighted.Of(EventServer, 0.05),
	)

	// true selects a never-valid account name.
	invalidUserBranch = weighted.MustNew(
		weighted.Of(true, 0.7),
		weighted.Of(false, 0.3),
	)

	serverMessages = weighted.MustNew(
		weighted.Of("Server listening on :: port 22.", 1),
		weighted.Of("Server listening on 0.0.0.0 port 22.", 1),
		weighted.Of("Received SIGHUP; restarting.", 1),
	)
)

// SecureRecord is one sshd line in the host security log.
type SecureRecord struct {
	Time    time.Time
	Event   SecureEvent
	Host    string
	Process string
	PID     int
	Message string
}

// Line renders "Day Mon DD YYYY HH:MM:SS HOST process[PID]: MESSAGE".
func (s SecureRecord) Line() string {
	return fmt.Sprintf("%s %s %s[%d]: %s", s.Time.Format(SecureTimeLayout), s.Host, s.Process, s.PID, s.Message)
}

// Row implements Record.
func (s SecureRecord) Row() []string {
	return []string{s.Time.Format(SecureTimeLayout), s.Host, s.Process, strconv.Itoa(s.PID), s.Message}
}

// SecurityLog synthesizes sshd authentication and session records.
type SecurityLog struct {
	pools        *pools.Pools
	window       sampler.Window
	acceptedFrom pools.Pool
}

// NewSecurityLog returns a security log synthesizer. Accepted logins come
// from the legitimate addresses plus the first suspicious one, so most
// successes look legitimate while one scanner address sometimes gets in.
func NewSecurityLog(p *pools.Pools, w sampler.Window) *SecurityLog {
	first := pools.NewPool(p.SuspiciousIPs.Values()[0])
	return &SecurityLog{
		pools:        p,
		window:       w,
		acceptedFrom: p.LegitimateIPs.Concat(first),
	}
}

// Header implements Synthesizer.
func (s *SecurityLog) Header() []string {
	return []string{"time", "host", "process", "pid", "message"}
}

// Next implements Synthesizer.
func (s *SecurityLog) Next(r *rand.Rand) Record {
	return s.Secure(r)
}

// Secure draws one record with its concrete type.
func (s *SecurityLog) Secure(r *rand.Rand) SecureRecord {
	rec := SecureRecord{
		Time:    s.window.Sample(r),
		Event:   secureEvents.Pick(r),
		Host:    secureHost,
		Process: secureProcess,
		PID:     between(r, 1000, 99999),
	}

	switch rec.Event {
	case EventFailedPassword:
		var who string
		if invalidUserBranch.Pick(r) {
			who = "invalid user " + s.pools.InvalidUsers.Pick(r)
		} else {
			who = s.pools.ValidUsers.Pick(r)
		}
		rec.Message = fmt.Sprintf("Failed password for %s from %s port %d ssh2",
			who, s.pools.SuspiciousIPs.Pick(r), between(r, 22, 65535))

	case EventAccepted:
		rec.Message = fmt.Sprintf("Accepted password for %s from %s port %d ssh2",
			s.pools.ValidUsers.Pick(r), s.acceptedFrom.Pick(r), sshPort)

	case EventSessionOpened:
		user := s.pools.ValidUsers.Pick(r)
		uid := 0
		if !s.pools.PrivilegedUsers.Contains(user) {
			uid = between(r, 1000, 9999)
		}
		rec.Message = fmt.Sprintf("pam_unix(sshd:session): session opened for user %s by (uid=%d)", user, uid)

	case EventSessionClosed:
		rec.Message = fmt.Sprintf("pam_unix(sshd:session): session closed for user %s", s.pools.ValidUsers.Pick(r))

	default:
		rec.Message = serverMessages.Pick(r)
	}

	return rec
}

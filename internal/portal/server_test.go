package portal

import (
	"testing"
	"time"

	"github.com/miekg/dns"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New("127.0.0.1:0", "10.42.0.1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	go func() { _ = s.Start() }()
	t.Cleanup(func() { _ = s.Shutdown() })

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}
	return s
}

func query(t *testing.T, s *Server, name string, qtype uint16) *dns.Msg {
	t.Helper()
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)

	c := new(dns.Client)
	resp, _, err := c.Exchange(req, s.udp.PacketConn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Exchange(%s) error = %v", name, err)
	}
	return resp
}

func TestAnyAQueryGetsPortalIP(t *testing.T) {
	s := startTestServer(t)

	for _, name := range []string{"example.com", "connectivitycheck.gstatic.com", "foo.bar.baz"} {
		resp := query(t, s, name, dns.TypeA)
		if resp.Rcode != dns.RcodeSuccess {
			t.Errorf("A %s: rcode = %v, want NOERROR", name, dns.RcodeToString[resp.Rcode])
			continue
		}
		if len(resp.Answer) != 1 {
			t.Errorf("A %s: %d answers, want 1", name, len(resp.Answer))
			continue
		}
		a, ok := resp.Answer[0].(*dns.A)
		if !ok {
			t.Errorf("A %s: answer type %T, want *dns.A", name, resp.Answer[0])
			continue
		}
		if got := a.A.String(); got != "10.42.0.1" {
			t.Errorf("A %s = %s, want 10.42.0.1", name, got)
		}
	}
}

func TestAAAAQueryGetsEmptyNoError(t *testing.T) {
	s := startTestServer(t)

	resp := query(t, s, "example.com", dns.TypeAAAA)
	if resp.Rcode != dns.RcodeSuccess {
		t.Errorf("AAAA rcode = %v, want NOERROR", dns.RcodeToString[resp.Rcode])
	}
	if len(resp.Answer) != 0 {
		t.Errorf("AAAA answers = %v, want none", resp.Answer)
	}
}

func TestNewRejectsNonIPv4Portal(t *testing.T) {
	for _, bad := range []string{"", "not-an-ip", "fe80::1"} {
		if _, err := New(":53", bad); err == nil {
			t.Errorf("New(%q) expected error, got nil", bad)
		}
	}
}

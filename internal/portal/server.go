package portal

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/logging"
)

// answerTTL is deliberately short; once the device leaves setup mode the
// wildcard answers must age out of client caches quickly.
const answerTTL = 10

// Server answers every A query with the portal address.
type Server struct {
	addr     string
	portalIP net.IP
	udp      *dns.Server
	ready    chan struct{}
}

// New creates a captive DNS server listening on addr (host:port, typically
// ":53") that resolves everything to portalIP.
func New(addr, portalIP string) (*Server, error) {
	ip := net.ParseIP(portalIP)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("portal address %q is not an IPv4 address", portalIP)
	}
	s := &Server{
		addr:     addr,
		portalIP: ip.To4(),
		ready:    make(chan struct{}),
	}
	s.udp = &dns.Server{
		Addr:              addr,
		Net:               "udp",
		Handler:           dns.HandlerFunc(s.handle),
		NotifyStartedFunc: func() { close(s.ready) },
	}
	return s, nil
}

// Start serves DNS until Shutdown. It blocks, in the manner of
// http.Server.ListenAndServe.
func (s *Server) Start() error {
	logging.Info("Captive DNS listening",
		zap.String("addr", s.addr),
		zap.String("portal_ip", s.portalIP.String()),
	)
	if err := s.udp.ListenAndServe(); err != nil {
		return fmt.Errorf("captive dns server: %w", err)
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.udp.Shutdown()
}

func (s *Server) handle(w dns.ResponseWriter, req *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	for _, q := range req.Question {
		switch q.Qtype {
		case dns.TypeA:
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{
					Name:   q.Name,
					Rrtype: dns.TypeA,
					Class:  dns.ClassINET,
					Ttl:    answerTTL,
				},
				A: s.portalIP,
			})
		case dns.TypeAAAA:
			// Empty NOERROR: "no IPv6, but the name exists". NXDOMAIN here
			// makes some resolvers distrust the A answer too.
		default:
			// Other types also get an empty NOERROR.
		}
		logging.Debug("Captive DNS query",
			zap.String("name", q.Name),
			zap.String("type", dns.TypeToString[q.Qtype]),
		)
	}

	if err := w.WriteMsg(resp); err != nil {
		logging.Warn("Failed to write DNS response", zap.Error(err))
	}
}

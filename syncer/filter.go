package syncer

import (
	"net/netip"

	"go4.org/netipx"
)

// Ranges the ThousandEyes API will not accept as an agent-to-server
// target: RFC1918 plus the usual non-routable blocks.
var ineligiblePrefixes = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::/128",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
	"ff00::/8",
}

// AddressFilter decides which node addresses are usable as test
// targets. It holds no state beyond the compiled range set.
type AddressFilter struct {
	ineligible *netipx.IPSet
}

func NewAddressFilter() (*AddressFilter, error) {
	var b netipx.IPSetBuilder
	for _, p := range ineligiblePrefixes {
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, err
		}
		b.AddPrefix(prefix)
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, err
	}
	return &AddressFilter{ineligible: set}, nil
}

// Eligible reports whether addr can be the target of a test. Anything
// that does not parse as an IP address is ineligible; a bad address
// must never reach the monitoring API.
func (f *AddressFilter) Eligible(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return !f.ineligible.Contains(ip.Unmap())
}

// FirstEligible returns the first eligible address in addrs.
func (f *AddressFilter) FirstEligible(addrs []string) (string, bool) {
	for _, a := range addrs {
		if f.Eligible(a) {
			return a, true
		}
	}
	return "", false
}

package monitors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/eventease-dev/eventease/internal/types"
)

// CheckDNS confirms that a host the app depends on (the SMTP relay) resolves.
func CheckDNS(ctx context.Context, config *types.DNSConfig) error {
	timeout := config.Timeout

	if timeout == 0 {
		timeout = 5 // 5 seconds timeout by default
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	resolver := &net.Resolver{}

	switch strings.ToUpper(config.RecordType) {
	case "A", "":
		return checkARecord(ctx, resolver, config)
	case "MX":
		return checkMXRecord(ctx, resolver, config)
	default:
		return errors.New("unsupported DNS record type: " + config.RecordType)
	}
}

func checkARecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	// Literal addresses need no lookup.
	if net.ParseIP(config.Domain) != nil {
		return nil
	}

	ips, err := resolver.LookupIPAddr(ctx, config.Domain)

	if err != nil {
		return fmt.Errorf("failed to resolve A record for %s: %v", config.Domain, err)
	}

	if len(ips) == 0 {
		return fmt.Errorf("no A records found for %s", config.Domain)
	}

	return nil
}

func checkMXRecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	mxRecords, err := resolver.LookupMX(ctx, config.Domain)

	if err != nil {
		return fmt.Errorf("failed to resolve MX records for %s: %v", config.Domain, err)
	}

	if len(mxRecords) == 0 {
		return fmt.Errorf("no MX records found for %s", config.Domain)
	}

	return nil
}

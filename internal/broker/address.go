// Package broker defines the network endpoint of a single Kafka broker
package broker

import (
	"fmt"
	"net"
	"strconv"
)

// Address is the host and port of a broker. It is a comparable value.
type Address struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ParseError is returned when a broker connection string is malformed
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid broker address %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid broker address %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses a "host:port" connection string
func Parse(s string) (Address, error) {
	host, portString, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, &ParseError{Input: s, Reason: "expected host:port", Err: err}
	}
	if host == "" {
		return Address{}, &ParseError{Input: s, Reason: "empty host"}
	}

	port, err := strconv.ParseUint(portString, 10, 16)
	if err != nil {
		return Address{}, &ParseError{Input: s, Reason: "port must be an integer between 0 and 65535", Err: err}
	}

	return Address{Host: host, Port: int(port)}, nil
}

// MustParse is like Parse but panics if the string cannot be parsed
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String returns the "host:port" form of the address
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

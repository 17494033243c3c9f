// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// EndPoint is the host and port a node listens on
type EndPoint struct {
	Host string
	Port int
}

// String returns host:port, IPv6 hosts are bracketed
func (e EndPoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndPoint reads a host:port endpoint
func ParseEndPoint(value string) (EndPoint, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil {
		return EndPoint{}, err
	}
	if host == "" {
		return EndPoint{}, errors.New("missing host")
	}
	number, err := strconv.Atoi(port)
	if err != nil {
		return EndPoint{}, fmt.Errorf("invalid port %q", port)
	}
	if number < 1 || number > 65535 {
		return EndPoint{}, fmt.Errorf("port %d out of range", number)
	}
	return EndPoint{Host: host, Port: number}, nil
}

// ParseTCPURL reads tcp://[user:password@]host:port and returns the endpoint
// with the user info, nil when the url carries none
func ParseTCPURL(value string) (EndPoint, *url.Userinfo, error) {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return EndPoint{}, nil, err
	}
	if parsed.Scheme != "tcp" {
		return EndPoint{}, nil, fmt.Errorf("unsupported scheme '%s', expected tcp", parsed.Scheme)
	}
	endpoint, err := ParseEndPoint(parsed.Host)
	if err != nil {
		return EndPoint{}, nil, err
	}
	return endpoint, parsed.User, nil
}

type endPointValidator struct {
	field string
	value string
	url   bool
}

var _ Validator = (*endPointValidator)(nil)

// NewEndPointValidator fails when value is not a host:port endpoint
func NewEndPointValidator(field, value string) Validator {
	return &endPointValidator{field: field, value: value}
}

// NewTCPURLValidator fails when value is not a tcp://host:port url
func NewTCPURLValidator(field, value string) Validator {
	return &endPointValidator{field: field, value: value, url: true}
}

// Validate implements Validator
func (v *endPointValidator) Validate() error {
	var err error
	if v.url {
		_, _, err = ParseTCPURL(v.value)
	} else {
		_, err = ParseEndPoint(v.value)
	}
	if err == nil {
		return nil
	}

	expected := "host:port"
	if v.url {
		expected = "tcp://host:port"
	}
	return &Violation{Field: v.field, Message: fmt.Sprintf("must be %s, got '%s': %v", expected, v.value, err)}
}

// File: tlsconf/tlsconf.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package tlsconf is the TLS context factory: it turns cert/key material
// into the *tls.Config the secure transport variant wraps accepted
// connections with.

package tlsconf

import (
	"crypto/tls"
	"os"

	"github.com/hioload/connd/api"
)

// ServerConfig builds a server-side TLS config from PEM files on disk.
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	if _, err := os.Stat(certFile); err != nil {
		return nil, api.NewError(api.ErrCodeNotFound, "certificate file not found").WithContext("path", certFile)
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "loading TLS key pair: "+err.Error())
	}
	return ServerConfigFromCertificate(cert), nil
}

// ServerConfigFromCertificate builds a server-side TLS config around an
// already-parsed certificate, used by tests with generated material.
func ServerConfigFromCertificate(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}

// Package attest provides attestation quote providers used by the remote
// Confidential Computation Service client. Trusted-input casts (values
// originating from the host itself, such as the delivery clock reading)
// carry no user proof; instead the client attaches a quote binding the
// value to the attested execution environment.
package attest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_client "github.com/google/go-tdx-guest/client"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
)

// Provider produces an attestation quote over 64 bytes of report data.
type Provider interface {
	// AttestationType identifies the quote format ("qemu-tdx", "dummy", ...).
	AttestationType() string

	// Attest returns a quote binding the report data to this host.
	Attest(reportData [64]byte) ([]byte, error)
}

// DCAPProvider produces TDX DCAP quotes via the local quote device.
type DCAPProvider struct{}

// AttestationType returns the DCAP quote format identifier.
func (DCAPProvider) AttestationType() string { return "qemu-tdx" }

// Attest obtains a raw TDX quote over the report data.
func (DCAPProvider) Attest(reportData [64]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// RemoteProvider fetches quotes from a local attestation sidecar.
type RemoteProvider struct {
	Address string
}

// AttestationType returns the DCAP quote format identifier.
func (*RemoteProvider) AttestationType() string { return "qemu-tdx" }

// Attest requests a quote over the report data from the sidecar.
func (p *RemoteProvider) Attest(reportData [64]byte) ([]byte, error) {
	url := fmt.Sprintf("%s/attest/%x", p.Address, reportData[:])
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}

// DummyProvider returns a fixed marker instead of a quote. For
// development and tests only.
type DummyProvider struct{}

// AttestationType returns the dummy format identifier.
func (DummyProvider) AttestationType() string { return "dummy" }

// Attest returns a non-verifiable marker embedding the report data.
func (DummyProvider) Attest(reportData [64]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("dummy attestation over %x", reportData)), nil
}

// VerifyDCAPQuote verifies a raw TDX quote and checks it covers the
// expected report data.
func VerifyDCAPQuote(reportData [64]byte, quote []byte) error {
	protoQuote, err := tdx_abi.QuoteToProto(quote)
	if err != nil {
		return fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	if err := verify.TdxQuote(protoQuote, verify.DefaultOptions()); err != nil {
		return fmt.Errorf("quote verification failed: %w", err)
	}

	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, reportData[:]) {
		return fmt.Errorf("invalid report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, reportData[:])
	}

	return nil
}

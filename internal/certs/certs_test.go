package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

func TestGenerateCAUsesCedarAuthorizerIdentity(t *testing.T) {
	notBefore := time.Now()
	notAfter := notBefore.Add(time.Hour)

	caCertPEM, _, err := GenerateCA(notBefore, notAfter)
	if err != nil {
		t.Fatal(err)
	}

	block, _ := pem.Decode(caCertPEM)
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if cert.Subject.CommonName != caCommonName {
		t.Fatalf("expected CA common name %q, got %q", caCommonName, cert.Subject.CommonName)
	}
	if !cert.IsCA {
		t.Fatal("generated CA certificate is not marked IsCA")
	}
}

func TestGenerateCertSignedByCAForWebhookServiceDNSName(t *testing.T) {
	notBefore := time.Now()
	notAfter := notBefore.Add(time.Hour)

	caCertPEM, caKeyPEM, err := GenerateCA(notBefore, notAfter)
	if err != nil {
		t.Fatal(err)
	}

	dnsName := DNSName("cedar-authorizer", "cedar-system")
	certPEM, keyPEM, err := GenerateCert(caCertPEM, caKeyPEM, notBefore, notAfter, dnsName)
	if err != nil {
		t.Fatal(err)
	}

	pool, err := NewCertPool(caCertPEM)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyCert(certPEM, keyPEM, pool, dnsName, notBefore.Add(time.Minute)); err != nil {
		t.Fatalf("VerifyCert failed for the webhook service certificate: %v", err)
	}
}

func TestDNSName(t *testing.T) {
	got := DNSName("cedar-authorizer", "cedar-system")
	want := "cedar-authorizer.cedar-system.svc"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestVerifyCertInvalidPEMHeader(t *testing.T) {
	// Generate ECDSA key
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	// Marshall it
	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		t.Fatal(err)
	}

	// PEM encode with WRONG header "RSA PRIVATE KEY"
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privateKeyBytes,
	})

	// Generate a dummy cert to go with it
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"example.com"},
	}
	certBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certBytes})

	// Create CertPool (self-signed)
	pool := x509.NewCertPool()

	// VerifyCert should FAIL
	err = VerifyCert(certPEM, privateKeyPEM, pool, "example.com", time.Now())
	if err == nil {
		t.Fatal("VerifyCert should have failed with invalid PEM header")
	}
	expectedError := "private key has invalid PEM header, expected 'EC PRIVATE KEY'"
	if err.Error() != expectedError {
		t.Fatalf("Expected error %q, got %q", expectedError, err.Error())
	}
}

func TestVerifyCertValidPEMHeader(t *testing.T) {
	// Generate ECDSA key
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	// Marshall it
	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		t.Fatal(err)
	}

	// PEM encode with CORRECT header "EC PRIVATE KEY"
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privateKeyBytes,
	})

	// Generate a dummy cert to go with it
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{"example.com"},
	}
	certBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certBytes})

	// Create CertPool (self-signed)
	pool := x509.NewCertPool()
	cert, _ := x509.ParseCertificate(certBytes)
	pool.AddCert(cert)

	// VerifyCert should SUCCEED
	err = VerifyCert(certPEM, privateKeyPEM, pool, "example.com", time.Now())
	if err != nil {
		t.Fatalf("VerifyCert failed with valid PEM header: %v", err)
	}
}

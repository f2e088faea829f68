/*
Package security provides certificate issuance for Context Runtime clusters.

This package implements a Certificate Authority (CA) for mutual TLS (mTLS)
and certificate lifecycle management, giving every node and CLI client a
unique certificate for authenticating gRPC traffic between pkg/rpc peers.

# Architecture

	┌────────────────────┐
	│         CA         │
	│   (Root + Node)    │
	└─────────┬──────────┘
	          │
	          ▼
	  RSA 4096-bit root, 10-year validity
	  RSA 2048-bit node/client certs, 90-day validity

## Root CA

	Root CA (self-signed)
	├── 10-year validity
	├── RSA 4096-bit key (high security)
	├── KeyUsage: CertSign, CRLSign
	└── Subject: CN=Context Runtime Root CA, O=Context Runtime Cluster

The root CA is created during cluster bootstrap and persisted to a single
JSON file (root certificate in the clear, private key alongside it).

## Node Certificates

	Node Certificate
	├── 90-day validity
	├── RSA 2048-bit key (faster operations)
	├── KeyUsage: DigitalSignature, KeyEncipherment
	├── ExtKeyUsage: ServerAuth, ClientAuth
	├── Subject: CN={role}-{nodeID}, O=Context Runtime Cluster
	├── DNS Names: [node hostname]
	└── IP Addresses: [node IP]

Each node receives a unique certificate for mutual TLS authentication:

	Admin Node A ←→ mTLS ←→ Admin Node B
	     ↓                       ↓
	CA verifies             CA verifies
	peer cert               peer cert

## Client Certificates

CLI clients also receive certificates for authentication:

	CLI Certificate
	├── 90-day validity
	├── KeyUsage: DigitalSignature, KeyEncipherment
	├── ExtKeyUsage: ClientAuth
	└── Subject: CN=cli-{clientID}, O=Context Runtime Cluster

This allows secure CLI → admin communication without passwords.

# Usage Examples

## Setting Up a Certificate Authority

	import "github.com/iowarp/context-runtime/pkg/security"

	ca := security.NewCertAuthority()
	if err := ca.Initialize(); err != nil {
		panic(err)
	}

	if err := ca.SaveToFile("/var/lib/context-runtime/ca.json"); err != nil {
		panic(err)
	}

## Issuing Node Certificates

	nodeID := "node-1"
	role := "admin"
	dnsNames := []string{"node1.cluster.local", "localhost"}
	ipAddresses := []net.IP{net.ParseIP("192.168.1.10"), net.ParseIP("127.0.0.1")}

	tlsCert, err := ca.IssueNodeCertificate(nodeID, role, dnsNames, ipAddresses)
	if err != nil {
		panic(err)
	}

## Verifying Certificates

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		panic(err)
	}

	if err := ca.VerifyCertificate(cert); err != nil {
		panic(err)
	}

## Certificate Rotation

	if security.CertNeedsRotation(cert) {
		newTLSCert, err := ca.IssueNodeCertificate(nodeID, role, dnsNames, ipAddresses)
		if err != nil {
			panic(err)
		}

		certDir, _ := security.GetCertDir(role, nodeID)
		if err := security.SaveCertToFile(newTLSCert, certDir); err != nil {
			panic(err)
		}
	}

# Integration Points

## gRPC TLS Integration

All gRPC communication (pkg/rpc) uses mTLS with CA-issued certificates:

	// Server-side
	creds := credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{nodeCert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    certPool,  // Contains root CA
	})

	// Client-side
	creds := credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      certPool,  // Contains root CA
	})

This ensures every connection is encrypted (TLS 1.3 minimum on both
pkg/rpc's server and client) and mutually
authenticated (both parties verified against the root CA).

# Design Patterns

## Hierarchical PKI

	Root CA (trust anchor)
	└── Node/Client Certificates (issued by root)

The root key is only used for issuing certificates, so it can stay
offline between rotations.

## Certificate Caching

The CA records the most recent certificate issued for each id in memory
(certCache, read back with GetCachedCert). Every IssueNodeCertificate or
IssueClientCertificate call mints a new key and certificate and replaces
the cached entry; issuing never returns a cached certificate.

# Troubleshooting

## Certificate Verification Failures

1. Check CA consistency: ensure the CA loaded correctly and the root
   certificate matches the one peers were issued against.
2. Check certificate validity: NotBefore/NotAfter against current time.
3. Check certificate content: DNS names, IP addresses, key usage flags.

# See Also

  - pkg/rpc - mTLS-secured admin RPC transport
  - pkg/admin - coordinates certificate issuance for joining nodes
*/
package security

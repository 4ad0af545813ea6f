package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSecureClient_DefaultOptions(t *testing.T) {
	client := NewSecureClient(ClientOptions{})

	if client.Timeout != 0 {
		t.Errorf("Expected no overall timeout by default, got %v", client.Timeout)
	}

	transport := client.Transport.(*http.Transport)
	if !transport.DisableCompression {
		t.Error("Expected DisableCompression to be true by default")
	}
	if transport.TLSHandshakeTimeout != 10*time.Second {
		t.Errorf("Expected TLSHandshakeTimeout 10s, got %v", transport.TLSHandshakeTimeout)
	}
	if transport.Proxy == nil {
		t.Error("Expected proxy function to be set")
	}
}

func TestNewSecureClient_CustomTimeout(t *testing.T) {
	client := NewSecureClient(ClientOptions{Timeout: 5 * time.Minute})

	if client.Timeout != 5*time.Minute {
		t.Errorf("Expected timeout 5m, got %v", client.Timeout)
	}
}

func TestNewSecureClient_Compression(t *testing.T) {
	client := NewSecureClient(ClientOptions{EnableCompression: true})
	transport := client.Transport.(*http.Transport)
	if transport.DisableCompression {
		t.Error("Expected DisableCompression to be false when EnableCompression=true")
	}
}

func TestNewSecureClient_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte("final"))
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewSecureClient(ClientOptions{})
	resp, err := client.Get(server.URL + "/start")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("Expected 302 to be returned unchanged, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/final" {
		t.Errorf("Expected Location /final, got %q", loc)
	}
}

func TestNewSecureClient_ProxyFromEnvironment(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://proxy.example.com:3128")
	t.Setenv("NO_PROXY", "internal.example.com")

	client := NewSecureClient(ClientOptions{})
	proxy := client.Transport.(*http.Transport).Proxy

	req, _ := http.NewRequest(http.MethodGet, "https://github.com/acme/myproj", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil || u.Host != "proxy.example.com:3128" {
		t.Errorf("Expected proxy.example.com:3128, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://internal.example.com/file", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u != nil {
		t.Errorf("Expected NO_PROXY host to bypass proxy, got %v", u)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Timeout != 0 {
		t.Errorf("Expected default Timeout 0, got %v", opts.Timeout)
	}
	if opts.DialTimeout != 30*time.Second {
		t.Errorf("Expected default DialTimeout 30s, got %v", opts.DialTimeout)
	}
	if opts.ResponseHeaderTimeout != 30*time.Second {
		t.Errorf("Expected default ResponseHeaderTimeout 30s, got %v", opts.ResponseHeaderTimeout)
	}
	if opts.EnableCompression {
		t.Error("Expected compression disabled by default")
	}
	if opts.MaxIdleConns != 10 {
		t.Errorf("Expected default MaxIdleConns 10, got %d", opts.MaxIdleConns)
	}
	if opts.IdleConnTimeout != 90*time.Second {
		t.Errorf("Expected default IdleConnTimeout 90s, got %v", opts.IdleConnTimeout)
	}
}

package httputil

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRetriever(opts ...Option) *Retriever {
	return NewRetriever(append([]Option{WithAllowInsecure(true)}, opts...)...)
}

func TestRetriever_FetchText_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "prelaunch" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("abc123  foo.tar.gz\n"))
	}))
	defer server.Close()

	text, err := newTestRetriever().FetchText(context.Background(), server.URL+"/checksums.txt")
	require.NoError(t, err)
	require.Equal(t, "abc123  foo.tar.gz\n", text)
}

func TestRetriever_FetchText_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/objects/checksums.txt?sig=secret", http.StatusFound)
	})
	mux.HandleFunc("/objects/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	text, err := newTestRetriever().FetchText(context.Background(), server.URL+"/releases/checksums.txt")
	require.NoError(t, err)
	require.Equal(t, "body", text)
}

func TestRetriever_RedirectStatuses(t *testing.T) {
	for _, status := range []int{301, 302, 303, 307, 308} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/final" {
					_, _ = w.Write([]byte("ok"))
					return
				}
				w.Header().Set("Location", "/final")
				w.WriteHeader(status)
			}))
			defer server.Close()

			text, err := newTestRetriever().FetchText(context.Background(), server.URL+"/start")
			require.NoError(t, err)
			require.Equal(t, "ok", text)
		})
	}
}

func TestRetriever_RedirectLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	_, err := newTestRetriever().FetchText(context.Background(), server.URL+"/loop")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTooManyRedirects)

	var redirectErr *RedirectError
	require.ErrorAs(t, err, &redirectErr)
	require.Equal(t, DefaultMaxRedirects, redirectErr.Hops)
	require.Equal(t, int32(DefaultMaxRedirects+1), requests.Load())
}

func TestRetriever_RedirectLimit_ExactlyAtCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		_, _ = fmt.Sscanf(r.URL.Path, "/hop/%d", &n)
		if n >= 3 {
			_, _ = w.Write([]byte("done"))
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
	}))
	defer server.Close()

	text, err := newTestRetriever(WithMaxRedirects(3)).FetchText(context.Background(), server.URL+"/hop/0")
	require.NoError(t, err)
	require.Equal(t, "done", text)

	_, err = newTestRetriever(WithMaxRedirects(2)).FetchText(context.Background(), server.URL+"/hop/0")
	require.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestRetriever_RedirectPolicy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/evil", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewRetriever().FetchText(context.Background(), server.URL)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTooManyRedirects)

	var redirectErr *RedirectError
	require.ErrorAs(t, err, &redirectErr)
	require.Contains(t, err.Error(), "non-HTTPS")
}

func TestRetriever_RedirectPolicy_TLSLoopback(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://127.0.0.1/evil", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewRetriever(WithClient(server.Client())).FetchText(context.Background(), server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "loopback")
}

// connectProxy tunnels every CONNECT request to target, whatever host the
// client asked for.
func connectProxy(t *testing.T, target string, tunnels *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodConnect {
			http.Error(w, "CONNECT only", http.StatusMethodNotAllowed)
			return
		}
		tunnels.Add(1)
		upstream, err := net.Dial("tcp", target)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			upstream.Close()
			return
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 Connection established\r\n\r\n"))
		go func() {
			_, _ = io.Copy(upstream, buf)
			upstream.Close()
		}()
		_, _ = io.Copy(conn, upstream)
		conn.Close()
	}))
}

func TestRetriever_RedirectThroughProxy(t *testing.T) {
	origin := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "https://assets.example.invalid/archive", http.StatusFound)
		case "/archive":
			_, _ = w.Write([]byte("archive"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	var tunnels atomic.Int32
	proxy := connectProxy(t, origin.Listener.Addr().String(), &tunnels)
	defer proxy.Close()
	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	client := NewSecureClient(DefaultOptions())
	tr := client.Transport.(*http.Transport)
	tr.Proxy = http.ProxyURL(proxyURL)
	// The httptest certificate is issued for example.com.
	tr.TLSClientConfig = &tls.Config{
		RootCAs:    origin.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs,
		ServerName: "example.com",
	}
	defer client.CloseIdleConnections()

	r := NewRetriever(WithClient(client))
	r.lookup = failingLookup

	text, err := r.FetchText(context.Background(), "https://releases.example.invalid/start")
	require.NoError(t, err)
	require.Equal(t, "archive", text)
	require.Equal(t, int32(2), tunnels.Load())
}

func TestRetriever_RedirectWithoutProxy_ResolvesHop(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://assets.example.invalid/archive", http.StatusFound)
	}))
	defer server.Close()

	client := server.Client()
	client.Transport.(*http.Transport).Proxy = nil

	r := NewRetriever(WithClient(client))
	r.lookup = failingLookup

	_, err := r.FetchText(context.Background(), server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve redirect host")
}

func TestRetriever_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestRetriever().FetchText(context.Background(), server.URL+"/missing.txt")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Equal(t, server.URL+"/missing.txt", fetchErr.URL)
	require.Contains(t, err.Error(), "404")
}

func TestRetriever_RedirectWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	_, err := newTestRetriever().FetchText(context.Background(), server.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Contains(t, err.Error(), "Location")
}

func TestRetriever_FetchText_SizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 100))
	}))
	defer server.Close()

	_, err := newTestRetriever(WithMaxTextBytes(10)).FetchText(context.Background(), server.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds 10 bytes")

	text, err := newTestRetriever(WithMaxTextBytes(100)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, text, 100)
}

func TestRetriever_FetchText_InvalidUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\xef\xbb\xbfok \xff\xfe end"))
	}))
	defer server.Close()

	text, err := newTestRetriever().FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "ok \uFFFD end", text)
}

func TestRetriever_FetchFile(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 4096)
	mux := http.NewServeMux()
	mux.HandleFunc("/download/myproj_linux_amd64.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blob/abc", http.StatusFound)
	})
	mux.HandleFunc("/blob/abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var progressOut bytes.Buffer
	dest := filepath.Join(t.TempDir(), "myproj_linux_amd64.tar.gz")
	n, err := newTestRetriever(WithProgress(&progressOut)).
		FetchFile(context.Background(), server.URL+"/download/myproj_linux_amd64.tar.gz", dest)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestRetriever_FetchFile_CreatesDestBeforeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "archive.tar.gz")
	_, err := newTestRetriever().FetchFile(context.Background(), server.URL, dest)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)

	_, statErr := os.Stat(dest)
	require.NoError(t, statErr, "destination should exist for the caller to clean up")
}

func TestRetriever_FetchFile_BadDestination(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "missing-dir", "archive.tar.gz")
	_, err := newTestRetriever().FetchFile(context.Background(), server.URL, dest)
	require.Error(t, err)
	require.Equal(t, int32(0), requests.Load(), "no request should be sent when dest cannot be created")
}

func TestRetriever_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestRetriever().FetchText(ctx, server.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestFetchError_RedactsURL(t *testing.T) {
	err := &FetchError{URL: "https://objects.example.com/blob?X-Amz-Signature=secret", StatusCode: 403}
	require.NotContains(t, err.Error(), "secret")
	require.True(t, strings.HasPrefix(err.Error(), "GET https://objects.example.com/blob?REDACTED"))
}

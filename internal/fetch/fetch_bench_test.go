package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func BenchmarkClient_GetJSON(b *testing.B) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"id":"1","subject":"otel"}]}`))
	}))
	defer ts.Close()

	for _, conc := range []int{1, 8} {
		b.Run("conc="+strconv.Itoa(conc), func(b *testing.B) {
			cli := &Client{HTTPClient: ts.Client(), MaxAttempts: 1, PerRequestTimeout: 2 * time.Second, MaxConcurrent: conc}
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := cli.GetJSON(context.Background(), ts.URL, nil); err != nil {
						b.Fatalf("fetch failed: %v", err)
					}
				}
			})
		})
	}
}

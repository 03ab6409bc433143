package extract

import (
	"strings"
	"testing"
)

func BenchmarkNormalize(b *testing.B) {
	small := RawBody{ContentType: "html", Content: "<html><body><p>otel rica ederiz</p></body></html>"}
	medium := RawBody{ContentType: "html", Content: makeThreadHTML(20)}
	large := RawBody{ContentType: "html", Content: makeThreadHTML(200)}
	plain := RawBody{ContentType: "text", Content: strings.Repeat(sampleLine+"\r\n\r\n\r\n", 200)}

	for _, c := range []struct {
		name string
		body RawBody
	}{{"small", small}, {"medium", medium}, {"large", large}, {"plain", plain}} {
		b.Run(c.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = Normalize(c.body)
			}
		})
	}
}

func makeThreadHTML(replies int) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < replies; i++ {
		sb.WriteString("<div>")
		sb.WriteString(sampleLine)
		sb.WriteString("</div><div><b>From:</b> someone</div><p>")
		sb.WriteString(sampleDisclaimer)
		sb.WriteString("</p><hr>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

const (
	sampleLine       = "Merhaba, 2 Aralık - 5 Aralık Berlin için otel ve uçuş rica ederiz."
	sampleDisclaimer = "Bu e-posta ve ekleri gizlidir. If you are not the intended recipient please delete this email."
)

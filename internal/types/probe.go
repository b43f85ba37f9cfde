package types

type HttpConfig struct {
	Name           string            `json:"name"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers"`
	ExpectedStatus int               `json:"expected_status"` // 0 accepts anything below 500
	Timeout        int               `json:"timeout"`
}

type DNSConfig struct {
	Domain     string `json:"domain"`
	RecordType string `json:"record_type"` // A or MX
	Timeout    int    `json:"timeout"`     // Timeout in seconds
}

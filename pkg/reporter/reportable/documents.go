// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reportable

// common are the fields of every document.
type common struct {
	Gateway   string `json:"gateway"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"@timestamp"`
}

type requestDocument struct {
	common

	ID          string `json:"id,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Method      string `json:"method,omitempty"`
	URI         string `json:"uri,omitempty"`
	Path        string `json:"path,omitempty"`
	Status      int    `json:"status"`

	ResponseTime          int64  `json:"response-time"`
	APIResponseTime       *int64 `json:"api-response-time,omitempty"`
	ProxyLatency          *int64 `json:"proxy-latency,omitempty"`
	RequestContentLength  *int64 `json:"request-content-length,omitempty"`
	ResponseContentLength *int64 `json:"response-content-length,omitempty"`

	APIKey        string `json:"api-key,omitempty"`
	Plan          string `json:"plan,omitempty"`
	API           string `json:"api,omitempty"`
	Application   string `json:"application,omitempty"`
	Subscription  string `json:"subscription,omitempty"`
	Tenant        string `json:"tenant,omitempty"`
	User          string `json:"user,omitempty"`
	UserAgent     string `json:"user-agent,omitempty"`
	Host          string `json:"host,omitempty"`
	LocalAddress  string `json:"local-address,omitempty"`
	RemoteAddress string `json:"remote-address,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	ErrorKey      string `json:"error-key,omitempty"`
	Message       string `json:"message,omitempty"`
}

func newRequestDocument(c common, m *Metrics) *requestDocument {
	return &requestDocument{
		common:                c,
		ID:                    m.RequestID,
		Transaction:           m.TransactionID,
		Method:                m.Method,
		URI:                   m.URI,
		Path:                  m.Path,
		Status:                m.Status,
		ResponseTime:          m.ProxyResponseTimeMs,
		APIResponseTime:       known(m.APIResponseTimeMs),
		ProxyLatency:          known(m.ProxyLatencyMs),
		RequestContentLength:  known(m.RequestContentLength),
		ResponseContentLength: known(m.ResponseContentLength),
		APIKey:                m.APIKey,
		Plan:                  m.Plan,
		API:                   m.API,
		Application:           m.Application,
		Subscription:          m.Subscription,
		Tenant:                m.Tenant,
		User:                  m.User,
		UserAgent:             m.UserAgent,
		Host:                  m.Host,
		LocalAddress:          m.LocalAddress,
		RemoteAddress:         m.RemoteAddress,
		Endpoint:              m.Endpoint,
		ErrorKey:              m.ErrorKey,
		Message:               m.Message,
	}
}

// known returns nil for negative values.
func known(v int64) *int64 {
	if v < 0 {
		return nil
	}
	return &v
}

type logDocument struct {
	common

	ClientRequest  *Request  `json:"client-request,omitempty"`
	ClientResponse *Response `json:"client-response,omitempty"`
	ProxyRequest   *Request  `json:"proxy-request,omitempty"`
	ProxyResponse  *Response `json:"proxy-response,omitempty"`
}

func newLogDocument(c common, l *Log) *logDocument {
	return &logDocument{
		common:         c,
		ClientRequest:  l.ClientRequest,
		ClientResponse: l.ClientResponse,
		ProxyRequest:   l.ProxyRequest,
		ProxyResponse:  l.ProxyResponse,
	}
}

type healthDocument struct {
	common

	API          string         `json:"api"`
	Endpoint     string         `json:"endpoint"`
	Available    bool           `json:"available"`
	Success      bool           `json:"success"`
	State        int            `json:"state"`
	ResponseTime int64          `json:"response-time"`
	Steps        []stepDocument `json:"steps,omitempty"`
}

type stepDocument struct {
	Name         string    `json:"name"`
	Success      bool      `json:"success"`
	Request      *Request  `json:"request,omitempty"`
	Response     *Response `json:"response,omitempty"`
	ResponseTime int64     `json:"response-time"`
	Message      string    `json:"message,omitempty"`
}

func newHealthDocument(c common, s *EndpointStatus) *healthDocument {
	doc := &healthDocument{
		common:       c,
		API:          s.API,
		Endpoint:     s.Endpoint,
		Available:    s.Available,
		Success:      s.Success,
		State:        s.State,
		ResponseTime: s.ResponseTime,
	}
	for _, step := range s.Steps {
		doc.Steps = append(doc.Steps, stepDocument{
			Name:         step.Name,
			Success:      step.Success,
			Request:      step.Request,
			Response:     step.Response,
			ResponseTime: step.ResponseTime,
			Message:      step.Message,
		})
	}
	return doc
}

type monitorDocument struct {
	common

	OS      *osDocument      `json:"os,omitempty"`
	Process *processDocument `json:"process,omitempty"`
	Runtime *runtimeDocument `json:"runtime,omitempty"`
}

type osDocument struct {
	CPU *cpuDocument    `json:"cpu,omitempty"`
	Mem *memoryDocument `json:"mem,omitempty"`
}

type cpuDocument struct {
	Percent     int                  `json:"percent"`
	LoadAverage *loadAverageDocument `json:"load_average,omitempty"`
}

type loadAverageDocument struct {
	OneMinute      *float64 `json:"1m,omitempty"`
	FiveMinutes    *float64 `json:"5m,omitempty"`
	FifteenMinutes *float64 `json:"15m,omitempty"`
}

type memoryDocument struct {
	Total       int64 `json:"total_in_bytes"`
	Free        int64 `json:"free_in_bytes"`
	Used        int64 `json:"used_in_bytes"`
	FreePercent int   `json:"free_percent"`
	UsedPercent int   `json:"used_percent"`
}

type processDocument struct {
	Timestamp           int64 `json:"timestamp"`
	OpenFileDescriptors int64 `json:"open_file_descriptors"`
	MaxFileDescriptors  int64 `json:"max_file_descriptors"`
}

type runtimeDocument struct {
	Timestamp          int64 `json:"timestamp"`
	UptimeMillis       int64 `json:"uptime_in_millis"`
	HeapUsed           int64 `json:"heap_used_in_bytes"`
	HeapCommitted      int64 `json:"heap_committed_in_bytes"`
	Goroutines         int   `json:"goroutines"`
	GCCount            int64 `json:"gc_count"`
	GCPauseTotalMillis int64 `json:"gc_pause_total_in_millis"`
}

func newMonitorDocument(c common, m *Monitor) *monitorDocument {
	doc := &monitorDocument{common: c}
	if m.OS != nil {
		doc.OS = &osDocument{}
		if m.OS.CPU != nil {
			doc.OS.CPU = &cpuDocument{
				Percent:     m.OS.CPU.Percent,
				LoadAverage: newLoadAverage(m.OS.CPU.LoadAverage),
			}
		}
		if mem := m.OS.Mem; mem != nil {
			doc.OS.Mem = &memoryDocument{
				Total:       mem.Total,
				Free:        mem.Free,
				Used:        mem.Used,
				FreePercent: mem.FreePercent,
				UsedPercent: mem.UsedPercent,
			}
		}
	}
	if p := m.Process; p != nil {
		doc.Process = &processDocument{
			Timestamp:           p.Timestamp,
			OpenFileDescriptors: p.OpenFileDescriptors,
			MaxFileDescriptors:  p.MaxFileDescriptors,
		}
	}
	if r := m.Runtime; r != nil {
		doc.Runtime = &runtimeDocument{
			Timestamp:          r.Timestamp,
			UptimeMillis:       r.UptimeMillis,
			HeapUsed:           r.HeapUsed,
			HeapCommitted:      r.HeapCommitted,
			Goroutines:         r.Goroutines,
			GCCount:            r.GCCount,
			GCPauseTotalMillis: r.GCPauseTotalMillis,
		}
	}
	return doc
}

// newLoadAverage drops unknown (-1) values and returns nil if all values are unknown.
func newLoadAverage(loads []float64) *loadAverageDocument {
	var (
		avg   loadAverageDocument
		found bool
	)
	targets := []**float64{&avg.OneMinute, &avg.FiveMinutes, &avg.FifteenMinutes}
	for i, load := range loads {
		if i >= len(targets) {
			break
		}
		if load == -1 {
			continue
		}
		v := load
		*targets[i] = &v
		found = true
	}
	if !found {
		return nil
	}
	return &avg
}

package api

import "testing"

func TestIsReadOnlyMethod(t *testing.T) {
	cases := map[string]bool{
		"/scheduler.Admin/ListJobs":           true,
		"/scheduler.Admin/GetJob":             true,
		"/scheduler.Admin/ListTriggers":       true,
		"/scheduler.Admin/StreamEvents":       true,
		"/scheduler.Admin/TriggerACLReconcile": false,
		"malformed":                           false,
	}
	for method, want := range cases {
		if got := isReadOnlyMethod(method); got != want {
			t.Errorf("isReadOnlyMethod(%q) = %v, want %v", method, got, want)
		}
	}
}

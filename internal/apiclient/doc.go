// Package apiclient talks to the OSN API the way the browser SPA does: it
// keeps cookies across calls, echoes the XSRF-TOKEN cookie in the
// X-XSRF-TOKEN header and sends Origin and Referer on mutating requests.
//
// Calls are made once. There are no retries, and transport failures are
// returned unchanged.
package apiclient

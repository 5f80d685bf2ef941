// Package cloud discovers Azure virtual machines whose names contain one of
// the target host substrings.
//
// Authenticate exchanges the service principal's client ID and secret for an
// ARM bearer token (OAuth2 client-credentials grant against the tenant's v2.0
// token endpoint). FindTargetVMs lists every VM in the subscription through
// the armcompute pager, which follows nextLink pagination, and keeps only the
// name matches. SDK retries are disabled: one attempt per call.
package cloud

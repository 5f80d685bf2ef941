// Package config builds the immutable Request that drives one hostpager-setup
// run.
//
// Input is the raw, unvalidated form. It is filled either by the interactive
// prompts or by FromEnv, which reads environment variables (and a .env file
// when present) through struct tags:
//
//	AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_SUBSCRIPTION_ID
//	DD_API_KEY, DD_APP_KEY, DD_SITE, DD_WEBHOOK_NAME
//	PAGERDUTY_ROUTING_KEY, PAGERDUTY_EVENTS_URL
//	RELAY_WEBHOOK_URL, RELAY_SHARED_SECRET, TARGET_HOSTS
//
// NewRequest(Input) is the only way to obtain a Request. It rejects missing
// required fields, a tenant ID without the rest of the Azure block, and a
// webhook URL that is not absolute http(s). Request exposes its settings
// through value-returning getters so a run cannot alter them.
package config

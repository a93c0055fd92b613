/*
Package dyndns keeps the A and AAAA records of one name in sync with the caller's public addresses.

Usage will always start with [dyndns.New],
which returns a [Client].
New requires a [Provider] implementation for a DNS provider, usually registered with [UsingCloudflare].
Additional client configuration options are listed in the docs for New.

Each call to [Client.Reconcile] is one pass:
look up the current addresses and the existing records,
update the records that drifted,
and post a summary to a webhook if anything was attempted.
Passes keep no state between runs; schedule them with cron, a systemd timer, or [RunDaemon].
*/
package dyndns

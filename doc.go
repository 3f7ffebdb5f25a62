/*
Package dwd keeps DNS records pointed at the caller's current public IP address.

Usage will always start with [dwd.New],
which returns an [Updater] configured by options.
Most programs build everything from a [Config] with [dwd.FromConfig];
library users can register their own lookups and publishers with [dwd.UsingLookup] and [dwd.UsingPublisher].

Each cycle asks the configured IP providers in order until one returns a valid address,
skips the cycle if the address matches the one last published,
and otherwise pushes the address to every configured DNS provider.
A failing DNS provider never prevents the others from being updated.
*/
package dwd

// Package mqtt mirrors panel state onto an MQTT broker.
//
// Every attribute change is published retained to
// <prefix>/<kind>/<id>/<attribute>, a device snapshot to <prefix>/<kind>/<id>,
// and the bridge status to <prefix>/status (with an offline Last Will).
// Commands published to <prefix>/command are forwarded to the panel.
package mqtt

// Package server is the HTTP boundary: request validation, reviewer
// identity resolution from the portal session, dispatch to the evaluation
// services, and response shaping. No business logic lives here.
package server

/*
Package agent implements the dispatch core of the CostFX restaurant
operations backend: named agents exposing fixed capability sets, a uniform
request/response envelope, and a manager that routes requests to agents.

# Overview

The package is designed around a small set of contracts:

  - Agent: capability declaration, lifecycle and request handling
  - Request/Response: the envelope crossing every handling boundary
  - Manager: registration, routing, fan-out and fleet observability
  - Logger: structured logging

# Agents

Concrete agents embed a *BaseAgent, which supplies the envelope wrapper,
lifecycle state machine and health counters. An agent moves through

	inactive -> active -> processing -> active (success)
	                                 -> error  (failure)

and back to inactive on shutdown. HandleRequest is the boundary that
converts processing errors into failure envelopes; it never lets an error
or panic escape.

# Routing

The Manager selects the first registered active agent whose capability set
covers the request type:

	manager := agent.NewManager(agent.ManagerConfig{Logger: logger})
	manager.Register(costAgent)

	resp := manager.Route(ctx, agent.NewRequest("calculate_recipe_cost").
		ForRestaurant(42).
		Set("ingredients", ingredients).
		Build())

Direct routing by name (RouteTo) bypasses capability matching and returns
raw results and errors instead of envelopes. RestaurantInsights fans out to
every insight-capable agent and merges the results by priority.
*/
package agent

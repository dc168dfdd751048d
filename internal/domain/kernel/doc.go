/*
Package kernel assembles the simulated microkernel.

A Kernel owns one of each component: the scheduler and its activity tick, the
IPC hub, the recovery agent, the camera simulator and the MMU monitor. New
wires their bus subscriptions and seeds the process table; Start launches
every periodic task and Stop cancels all of them, then broadcasts SHUTDOWN to
every bus subscriber.

Seeds come from DefaultSeeds or from a YAML file:

	processes:
	  - name: flight_control
	    priority: P1
	  - name: composition_analyzer
	    priority: P4
	    status: Waiting
*/
package kernel

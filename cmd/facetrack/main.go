// Command facetrack tracks faces from a camera and drives an on-screen overlay.
package main

func main() {
	Execute()
}

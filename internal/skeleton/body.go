// Package skeleton provides the joint and body types produced by the motion sensor,
// along with the smoothing filter applied to every incoming frame.
package skeleton

import (
	"errors"
	"fmt"
)

// ErrMissingJoint is returned when a raw skeleton lacks one of the joints a Body needs.
var ErrMissingJoint = errors.New("missing joint")

// JointID identifies a tracked joint, following the sensor's skeleton layout.
type JointID int

// Joint identifiers in sensor order.
const (
	HipCenter JointID = iota
	Spine
	ShoulderCenter
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	NumJoints
)

var jointNames = [NumJoints]string{
	"HipCenter", "Spine", "ShoulderCenter", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
}

// String returns the joint name as used on the wire and in the store.
func (j JointID) String() string {
	if j < 0 || j >= NumJoints {
		return fmt.Sprintf("JointID(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJointID returns the JointID with the given name.
func ParseJointID(name string) (JointID, error) {
	for i, n := range jointNames {
		if n == name {
			return JointID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", name)
}

// Vector3 is a point in sensor space. X and Y are roughly normalized to [-1, 1].
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Body is a snapshot of the joints used for gesture recognition for one tracked person.
type Body struct {
	Head      Vector3 `json:"head"`
	LeftHand  Vector3 `json:"left_hand"`
	RightHand Vector3 `json:"right_hand"`
}

// Joint returns the position of the given joint.
// Joints a Body does not carry resolve to the zero vector.
func (b Body) Joint(id JointID) Vector3 {
	switch id {
	case Head:
		return b.Head
	case HandLeft:
		return b.LeftHand
	case HandRight:
		return b.RightHand
	}
	return Vector3{}
}

// FromSkeleton builds a Body from a raw joint map. Positions are copied verbatim.
// It fails if Head, HandLeft or HandRight is absent.
func FromSkeleton(joints map[JointID]Vector3) (Body, error) {
	var b Body
	for _, j := range [...]struct {
		id  JointID
		dst *Vector3
	}{
		{Head, &b.Head},
		{HandLeft, &b.LeftHand},
		{HandRight, &b.RightHand},
	} {
		v, ok := joints[j.id]
		if !ok {
			return Body{}, fmt.Errorf("%w: %s", ErrMissingJoint, j.id)
		}
		*j.dst = v
	}
	return b, nil
}

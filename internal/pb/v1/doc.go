// Package pb describes the movementguard.v1.MovementService gRPC API.
//
// Messages are protobuf well-known types: requests without a payload use
// emptypb.Empty, mode names travel as wrapperspb.StringValue and every
// structured payload is a structpb.Struct. Field names are the field*
// constants in convert.go and the converters there are the only code that
// builds or reads these structs.
//
// Methods:
//
//	GetMovementState   Empty                    -> State
//	SetSafe            Actor                    -> State
//	GetConfig          Empty                    -> Config
//	UpdateConfig       Profile                  -> Config
//	SelectDangerMode   StringValue ("" clears)  -> Config
//	PushSamples        stream Sample            -> Empty
//	WatchMovementState Empty                    -> stream State
//
// Struct schemas:
//
//	Profile {pre_danger_threshold: number, pre_danger_timeout: string (Go duration, "10s"),
//	         danger_average_threshold: number}
//	State   {kind: "safe" | "pre_danger_acc" | "pre_danger" | "danger",
//	         since: string (RFC 3339 with nanoseconds, pre-danger kinds only)}
//	Config  {profile: Profile (in force), explicit: Profile, mode: string ("" for none),
//	         modes: [string]}
//	Sample  {timestamp_ms: number (optional, whole unix milliseconds),
//	         acceleration: [x, y, z] (m/s², finite), rotation: [x, y, z] (rad/s, finite)}
//	Actor   {hostname: string, username: string}
//
// Decoding fails with ErrMissingField or ErrInvalidField; the server reports
// both as codes.InvalidArgument.
package pb

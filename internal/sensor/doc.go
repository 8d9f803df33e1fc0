// Package sensor turns raw IMU output into motion samples.
//
// Devices write one reading per line: either "ax,ay,az,rx,ry,rz" or
// "unix_ms,ax,ay,az,rx,ry,rz". Acceleration is gravity-free in m/s^2 and
// rotation is in rad/s. Blank lines and lines starting with '#' are ignored.
package sensor

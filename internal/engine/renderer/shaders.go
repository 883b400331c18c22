package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uViewProj;

out vec3 vNormal;
out vec3 vWorld;

void main() {
	vNormal = aNormal;
	vWorld = aPos;
	gl_Position = uViewProj * vec4(aPos, 1.0);
}
`

const meshFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec3 vWorld;

uniform vec3 uEye;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
	vec3 n = length(vNormal) > 0.0 ? normalize(vNormal) : normalize(vWorld);
	float diffuse = max(dot(n, uLightDir), 0.0);
	float height = length(vWorld);
	vec3 low = vec3(0.25, 0.35, 0.2);
	vec3 high = vec3(0.75, 0.7, 0.65);
	vec3 base = mix(low, high, clamp((height - 0.8) * 2.0, 0.0, 1.0));
	float fog = clamp(length(vWorld - uEye) * 0.08, 0.0, 0.6);
	vec3 color = base * (0.2 + 0.8 * diffuse);
	FragColor = vec4(mix(color, vec3(0.02, 0.02, 0.05), fog), 1.0);
}
`

const linesVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uViewProj;

void main() {
	gl_Position = uViewProj * vec4(aPos, 1.0);
}
`

const linesFragmentShader = `
#version 410 core

out vec4 FragColor;

void main() {
	FragColor = vec4(1.0, 0.8, 0.2, 1.0);
}
`
